package zest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine renders templates by ID. IDs of the form "@namespace/path" refer to
// a file in the search path registered under that namespace; any other ID
// is looked up in every search path registered without a namespace, in the
// order they were added.
type Engine interface {
	// Render executes the template identified by id with data.
	Render(ctx context.Context, id string, data any) (template.HTML, error)

	// AddSearchPath makes the templates in fsys available, optionally
	// under a namespace.
	AddSearchPath(fsys fs.FS, namespace string) error
}

// FuncProvider returns the functions available to templates while rendering
// with ctx. It must return the same set of names for every context; only
// the implementations may vary.
type FuncProvider func(ctx context.Context) template.FuncMap

// DefaultSharedPatterns are the glob patterns, relative to a search path,
// whose files are parsed alongside every template from that search path.
var DefaultSharedPatterns = []string{"layouts/*.tmpl", "partials/*.tmpl"}

// EngineConfig configures an HTMLEngine.
type EngineConfig struct {
	// CacheDir is where the engine keeps its template fingerprint index
	// between runs. When empty, nothing is written to disk.
	CacheDir string

	// Debug makes template lookup errors list every location that was
	// tried.
	Debug bool

	// AutoReload makes the engine notice changes to template sources
	// without a restart. When false, the first parse of a template is
	// used until the process exits.
	AutoReload bool

	// SharedPatterns override DefaultSharedPatterns.
	SharedPatterns []string

	// Funcs supplies the functions available to templates. It can also
	// be set later with SetFuncs.
	Funcs FuncProvider
}

type searchPath struct {
	namespace string
	fsys      fs.FS
}

var _ Engine = &HTMLEngine{}

// HTMLEngine is an Engine built on html/template. An HTMLEngine must be
// instantiated through NewHTMLEngine, its empty value is not usable.
//
// It can safely be used by multiple goroutines.
type HTMLEngine struct {
	cfg EngineConfig

	pathsMu sync.RWMutex
	paths   []searchPath

	funcsMu sync.RWMutex
	funcs   FuncProvider

	cache *templateCache
	index *fingerprintIndex
}

// NewHTMLEngine returns an HTMLEngine that is ready to be used. If
// cfg.CacheDir holds a fingerprint index from a previous run, it is
// loaded.
func NewHTMLEngine(ctx context.Context, cfg EngineConfig) (*HTMLEngine, error) {
	if cfg.SharedPatterns == nil {
		cfg.SharedPatterns = DefaultSharedPatterns
	}
	index, err := loadFingerprintIndex(ctx, cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return &HTMLEngine{
		cfg:   cfg,
		funcs: cfg.Funcs,
		cache: newTemplateCache(),
		index: index,
	}, nil
}

// Debug reports whether the engine was configured in debug mode.
func (e *HTMLEngine) Debug() bool {
	return e.cfg.Debug
}

// SetFuncs replaces the engine's FuncProvider. Templates parsed before the
// call are discarded.
func (e *HTMLEngine) SetFuncs(funcs FuncProvider) {
	e.funcsMu.Lock()
	e.funcs = funcs
	e.funcsMu.Unlock()
	e.cache.purge()
}

func (e *HTMLEngine) funcMap(ctx context.Context) template.FuncMap {
	e.funcsMu.RLock()
	defer e.funcsMu.RUnlock()
	if e.funcs == nil {
		return template.FuncMap{}
	}
	return e.funcs(ctx)
}

// AddSearchPath registers fsys. Namespaces must be unique; any number of
// search paths may be registered without one.
func (e *HTMLEngine) AddSearchPath(fsys fs.FS, namespace string) error {
	if fsys == nil {
		return errors.New("nil search path")
	}
	if strings.Contains(namespace, "/") {
		return fmt.Errorf("namespace %q may not contain '/'", namespace)
	}
	e.pathsMu.Lock()
	defer e.pathsMu.Unlock()
	if namespace != "" && slices.ContainsFunc(e.paths, func(p searchPath) bool {
		return p.namespace == namespace
	}) {
		return fmt.Errorf("namespace %q is already registered", namespace)
	}
	e.paths = append(e.paths, searchPath{namespace: namespace, fsys: fsys})
	return nil
}

// locate finds the search path holding the template identified by id, and
// the template's path within it.
func (e *HTMLEngine) locate(id string) (fs.FS, string, error) {
	namespace, file := "", id
	if strings.HasPrefix(id, "@") {
		var ok bool
		namespace, file, ok = strings.Cut(id[1:], "/")
		if !ok {
			return nil, "", fmt.Errorf("malformed template ID %q: %w", id, ErrTemplateNotFound)
		}
	}
	if !fs.ValidPath(file) {
		return nil, "", fmt.Errorf("invalid template path %q: %w", id, ErrTemplateNotFound)
	}
	e.pathsMu.RLock()
	defer e.pathsMu.RUnlock()
	var tried []string
	for pos, p := range e.paths {
		if p.namespace != namespace {
			continue
		}
		info, err := fs.Stat(p.fsys, file)
		if err == nil && !info.IsDir() {
			return p.fsys, file, nil
		}
		tried = append(tried, fmt.Sprintf("%s (search path %d, namespace %q)", file, pos, p.namespace))
	}
	if e.cfg.Debug && len(tried) > 0 {
		return nil, "", fmt.Errorf("template %q, tried %s: %w", id, strings.Join(tried, ", "), ErrTemplateNotFound)
	}
	return nil, "", fmt.Errorf("template %q: %w", id, ErrTemplateNotFound)
}

// Render executes the template identified by id with data.
func (e *HTMLEngine) Render(ctx context.Context, id string, data any) (template.HTML, error) {
	ctx, span := tracer.Start(ctx, "zest.HTMLEngine.Render", trace.WithAttributes(
		attribute.String("zest.template", id),
	))
	defer span.End()

	out, err := e.render(ctx, id, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

func (e *HTMLEngine) render(ctx context.Context, id string, data any) (template.HTML, error) {
	entry, err := e.load(ctx, id)
	if err != nil {
		return "", err
	}
	tmpl, err := entry.tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("error cloning template %q: %w", id, err)
	}
	tmpl.Funcs(e.funcMap(ctx))
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry.name, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", id, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203
}

// load returns the parsed template for id, parsing it if it isn't cached or,
// with AutoReload, if its sources changed.
func (e *HTMLEngine) load(ctx context.Context, id string) (cachedTemplate, error) {
	cached, ok := e.cache.get(id)
	if ok && !e.cfg.AutoReload {
		return cached, nil
	}
	fsys, file, err := e.locate(id)
	if err != nil {
		return cachedTemplate{}, err
	}
	sources, err := e.readSources(fsys, file)
	if err != nil {
		return cachedTemplate{}, err
	}
	fingerprint := fingerprintSources(sources)
	if ok && cached.fingerprint == fingerprint {
		return cached, nil
	}
	if ok {
		logger(ctx).DebugContext(ctx, "template changed, re-parsing", "template", id)
	}
	tmpl, err := parseTemplates(e.funcMap(ctx), sources)
	if err != nil {
		return cachedTemplate{}, fmt.Errorf("error parsing template %q: %w", id, err)
	}
	entry := cachedTemplate{tmpl: tmpl, name: file, fingerprint: fingerprint}
	e.cache.set(id, entry)
	e.index.record(ctx, id, fingerprint)
	return entry, nil
}

type templateSource struct {
	name     string
	contents []byte
}

// readSources reads file and every shared template in fsys. file is always
// first.
func (e *HTMLEngine) readSources(fsys fs.FS, file string) ([]templateSource, error) {
	files := []string{file}
	for _, pattern := range e.cfg.SharedPatterns {
		list, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error listing files for %q: %w", pattern, err)
		}
		for _, match := range list {
			if !slices.Contains(files, match) {
				files = append(files, match)
			}
		}
	}
	sources := make([]templateSource, 0, len(files))
	for _, name := range files {
		contents, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("error reading %q: %w", name, err)
		}
		sources = append(sources, templateSource{name: name, contents: contents})
	}
	return sources, nil
}

func fingerprintSources(sources []templateSource) uint64 {
	digest := xxhash.New()
	for _, source := range sources {
		_, _ = digest.WriteString(source.name)
		_, _ = digest.Write([]byte{0})
		_, _ = digest.Write(source.contents)
		_, _ = digest.Write([]byte{0})
	}
	return digest.Sum64()
}

func parseTemplates(funcs template.FuncMap, sources []templateSource) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcs)
	for _, source := range sources {
		_, err := tmpl.New(source.name).Parse(string(source.contents))
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: %w", source.name, err)
		}
	}
	return tmpl, nil
}

// Changed lists the templates recorded in the fingerprint index whose
// sources differ from what was last parsed, including templates that no
// longer exist.
func (e *HTMLEngine) Changed(_ context.Context) ([]string, error) {
	var changed []string
	for id, fingerprint := range e.index.entries() {
		fsys, file, err := e.locate(id)
		if errors.Is(err, ErrTemplateNotFound) {
			changed = append(changed, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sources, err := e.readSources(fsys, file)
		if err != nil {
			return nil, err
		}
		if fingerprintSources(sources) != fingerprint {
			changed = append(changed, id)
		}
	}
	slices.Sort(changed)
	return changed, nil
}

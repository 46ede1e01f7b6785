package zest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

const (
	// LogicExt is the extension of a component's manifest, the file that
	// marks a directory as a component and carries its default data.
	LogicExt = ".toml"

	// TemplateExt is the extension of a component's template.
	TemplateExt = ".tmpl"

	// CSSExt is the extension of a component's stylesheet.
	CSSExt = ".css"

	// JSExt is the extension of a component's script.
	JSExt = ".js"

	// DefaultStaticPrefix is the public URL the default components root
	// is served under.
	DefaultStaticPrefix = "/static/components"

	// DefaultMaxDepth bounds how deep Discover descends.
	DefaultMaxDepth = 16

	// ComponentsNamespace is the engine namespace of the default
	// components root.
	ComponentsNamespace = "components"
)

// Descriptor is the set of files a component name resolved to. Paths are
// relative to the root the component was found in, and are empty when the
// component doesn't have that file.
type Descriptor struct {
	// Name is the component name that was resolved.
	Name string

	// Root is the engine namespace of the root the component was found
	// in. It is empty for components that only exist as registered
	// logic.
	Root string

	LogicPath    string
	TemplatePath string
	CSSPath      string
	JSPath       string
}

// TemplateID returns the engine template ID for the component's template,
// or an empty string if it has none.
func (d Descriptor) TemplateID() string {
	if d.TemplatePath == "" || d.Root == "" {
		return ""
	}
	return "@" + d.Root + "/" + d.TemplatePath
}

// ComponentAssets holds the public URLs of a component's stylesheet and
// script. Either may be empty.
type ComponentAssets struct {
	CSS string
	JS  string
}

// RegistryConfig is everything a Registry needs to know about where
// components live.
type RegistryConfig struct {
	// Components is the default components root.
	Components fs.FS

	// Namespaces maps a namespace to the root holding its components. A
	// component named "ns/Widget" is looked up in Namespaces["ns"] first.
	Namespaces map[string]fs.FS

	// SearchPaths are consulted, in order, for flat "<name>.<ext>" files
	// when nothing else matched.
	SearchPaths []fs.FS

	// StaticPrefix is the public URL the default components root is
	// served under. Defaults to DefaultStaticPrefix. Namespace roots are
	// served under StaticPrefix + "/" + namespace.
	StaticPrefix string

	// MaxDepth bounds how many directories deep discovery will walk.
	// Defaults to DefaultMaxDepth.
	MaxDepth int
}

type root struct {
	// namespace is the engine namespace templates in this root are
	// registered under.
	namespace string

	// prefix is prepended to discovered names; it's the configured
	// namespace for namespace roots and empty otherwise.
	prefix string

	fsys      fs.FS
	urlPrefix string
}

// Registry resolves component names to the files that make them up, and
// holds the Go logic registered for components.
//
// A Registry should be constructed once at startup with NewRegistry; its
// empty value is not usable. It can safely be used by multiple goroutines.
type Registry struct {
	components  root
	namespaces  map[string]root
	searchPaths []root
	maxDepth    int

	logicMu sync.RWMutex
	logic   map[string]LogicFactory

	discovered   []string
	discoveredMu sync.RWMutex
	discoverSF   singleflight.Group
}

// NewRegistry returns a Registry ready to be used.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Components == nil {
		return nil, errors.New("a components root is required")
	}
	staticPrefix := cfg.StaticPrefix
	if staticPrefix == "" {
		staticPrefix = DefaultStaticPrefix
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	reg := &Registry{
		components: root{
			namespace: ComponentsNamespace,
			fsys:      cfg.Components,
			urlPrefix: staticPrefix,
		},
		namespaces: map[string]root{},
		maxDepth:   maxDepth,
		logic:      map[string]LogicFactory{},
	}
	for ns, fsys := range cfg.Namespaces {
		if err := ValidateName(ns); err != nil || ns != baseName(ns) {
			return nil, fmt.Errorf("error registering namespace %q: %w", ns, ErrInvalidName)
		}
		if fsys == nil {
			return nil, fmt.Errorf("namespace %q has no root", ns)
		}
		reg.namespaces[ns] = root{
			namespace: ComponentsNamespace + ":" + ns,
			prefix:    ns,
			fsys:      fsys,
			urlPrefix: staticPrefix + "/" + ns,
		}
	}
	for pos, fsys := range cfg.SearchPaths {
		if fsys == nil {
			return nil, fmt.Errorf("search path %d has no root", pos)
		}
		reg.searchPaths = append(reg.searchPaths, root{
			namespace: "search:" + strconv.Itoa(pos),
			fsys:      fsys,
		})
	}
	return reg, nil
}

// roots returns the default root, then namespace roots sorted by
// namespace, then search paths.
func (r *Registry) roots() []root {
	results := make([]root, 0, 1+len(r.namespaces)+len(r.searchPaths))
	results = append(results, r.components)
	for _, ns := range slices.Sorted(maps.Keys(r.namespaces)) {
		results = append(results, r.namespaces[ns])
	}
	results = append(results, r.searchPaths...)
	return results
}

func (r *Registry) rootByNamespace(namespace string) (root, bool) {
	for _, rt := range r.roots() {
		if rt.namespace == namespace {
			return rt, true
		}
	}
	return root{}, false
}

// RegisterLogic makes factory the source of logic objects for the component
// called name. The convention is that logic is registered under the exact
// component name. It should be called during startup, before rendering.
func (r *Registry) RegisterLogic(name string, factory LogicFactory) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("nil logic factory for %q", name)
	}
	r.logicMu.Lock()
	defer r.logicMu.Unlock()
	if _, ok := r.logic[name]; ok {
		return fmt.Errorf("error registering logic for %q: %w", name, ErrDuplicateLogic)
	}
	r.logic[name] = factory
	return nil
}

func (r *Registry) logicFactory(name string) (LogicFactory, bool) {
	r.logicMu.RLock()
	defer r.logicMu.RUnlock()
	factory, ok := r.logic[name]
	return factory, ok
}

// Resolve finds the files that make up the named component. Candidates are
// tried in this order, and the first one with a manifest or a template
// wins:
//
//  1. if the name's first segment is a registered namespace,
//     <rest>/<Name>.<ext> in that namespace's root;
//  2. <name>/<Name>.<ext> in the default root;
//  3. <name>.<ext> in the default root;
//  4. <name>.<ext> in each search path.
//
// If nothing matches, the error wraps ErrComponentNotFound.
func (r *Registry) Resolve(ctx context.Context, name string) (Descriptor, error) {
	if err := ValidateName(name); err != nil {
		return Descriptor{}, err
	}
	base := baseName(name)
	if ns, rest, ok := splitNamespace(name); ok {
		if rt, registered := r.namespaces[ns]; registered {
			if desc, found := probe(ctx, rt, rest, baseName(rest)); found {
				desc.Name = name
				return desc, nil
			}
		}
	}
	if desc, found := probe(ctx, r.components, name, base); found {
		desc.Name = name
		return desc, nil
	}
	if desc, found := probe(ctx, r.components, path.Dir(name), base); found {
		desc.Name = name
		return desc, nil
	}
	for _, rt := range r.searchPaths {
		if desc, found := probe(ctx, rt, path.Dir(name), base); found {
			desc.Name = name
			return desc, nil
		}
	}
	logger(ctx).DebugContext(ctx, "component not found", "component", name)
	return Descriptor{}, fmt.Errorf("error resolving %q: %w", name, ErrComponentNotFound)
}

// probe checks dir/stem.<ext> in rt for each kind of component file.
func probe(ctx context.Context, rt root, dir, stem string) (Descriptor, bool) {
	desc := Descriptor{Root: rt.namespace}
	desc.LogicPath = existingFile(ctx, rt.fsys, path.Join(dir, stem+LogicExt))
	desc.TemplatePath = existingFile(ctx, rt.fsys, path.Join(dir, stem+TemplateExt))
	if desc.LogicPath == "" && desc.TemplatePath == "" {
		return Descriptor{}, false
	}
	desc.CSSPath = existingFile(ctx, rt.fsys, path.Join(dir, stem+CSSExt))
	desc.JSPath = existingFile(ctx, rt.fsys, path.Join(dir, stem+JSExt))
	return desc, true
}

// existingFile returns name if it is a regular file in fsys, and an empty
// string otherwise.
func existingFile(ctx context.Context, fsys fs.FS, name string) string {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger(ctx).DebugContext(ctx, "error checking for component file", "path", name, "error", err)
		}
		return ""
	}
	if info.IsDir() {
		return ""
	}
	return name
}

// Assets returns the public URLs of the named component's stylesheet and
// script.
func (r *Registry) Assets(ctx context.Context, name string) (ComponentAssets, error) {
	desc, err := r.Resolve(ctx, name)
	if err != nil {
		return ComponentAssets{}, err
	}
	return r.assetsFor(desc), nil
}

func (r *Registry) assetsFor(desc Descriptor) ComponentAssets {
	rt, ok := r.rootByNamespace(desc.Root)
	if !ok || rt.urlPrefix == "" {
		return ComponentAssets{}
	}
	var result ComponentAssets
	if desc.CSSPath != "" {
		result.CSS = rt.urlPrefix + "/" + desc.CSSPath
	}
	if desc.JSPath != "" {
		result.JS = rt.urlPrefix + "/" + desc.JSPath
	}
	return result
}

// Manifest reads the manifest of a resolved component. A component without
// a manifest gets the zero Manifest.
func (r *Registry) Manifest(desc Descriptor) (Manifest, error) {
	if desc.LogicPath == "" {
		return Manifest{}, nil
	}
	rt, ok := r.rootByNamespace(desc.Root)
	if !ok {
		return Manifest{}, fmt.Errorf("unknown root %q for %q", desc.Root, desc.Name)
	}
	return readManifest(rt.fsys, desc.LogicPath)
}

// Components lists every component in the default root and in each
// namespace, namespaced names prefixed with their namespace. The list is
// computed on first use and shared afterwards; call Refresh to recompute
// it.
func (r *Registry) Components(ctx context.Context) ([]string, error) {
	r.discoveredMu.RLock()
	cached := r.discovered
	r.discoveredMu.RUnlock()
	if cached != nil {
		return slices.Clone(cached), nil
	}
	res, err, _ := r.discoverSF.Do("components", func() (any, error) {
		var names []string
		for _, rt := range r.roots() {
			if rt.urlPrefix == "" {
				// search paths hold flat files, not component
				// directories
				continue
			}
			found, err := r.Discover(ctx, rt.fsys)
			if err != nil {
				return nil, err
			}
			for _, name := range found {
				if rt.prefix != "" {
					name = rt.prefix + "/" + name
				}
				names = append(names, name)
			}
		}
		if names == nil {
			names = []string{}
		}
		r.discoveredMu.Lock()
		r.discovered = names
		r.discoveredMu.Unlock()
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(res.([]string)), nil
}

// Refresh forgets the component list computed by Components.
func (r *Registry) Refresh() {
	r.discoveredMu.Lock()
	defer r.discoveredMu.Unlock()
	r.discovered = nil
}

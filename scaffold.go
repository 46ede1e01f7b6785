package zest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/natefinch/atomic"
)

// The skeleton files use [[ ]] delimiters so the component template can
// contain {{ }} actions verbatim.
const (
	scaffoldManifest = `description = "[[ .Name ]] component"

[defaults]
title = "[[ .Base ]] Component"
content = ""
`

	scaffoldTemplate = `<div class="[[ .Base ]]-component">
    <h3>{{ .title }}</h3>
    <div class="content">
        {{ .content }}
    </div>
</div>
`

	scaffoldCSS = `.[[ .Base ]]-component {
    /* Add your component styles here */
}
`

	scaffoldJS = `// [[ .Base ]] component JavaScript
`
)

var scaffoldFiles = []struct {
	ext  string
	tmpl *template.Template
}{
	{LogicExt, template.Must(template.New("manifest").Delims("[[", "]]").Parse(scaffoldManifest))},
	{TemplateExt, template.Must(template.New("template").Delims("[[", "]]").Parse(scaffoldTemplate))},
	{CSSExt, template.Must(template.New("css").Delims("[[", "]]").Parse(scaffoldCSS))},
	{JSExt, template.Must(template.New("js").Delims("[[", "]]").Parse(scaffoldJS))},
}

var scaffoldSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Scaffolder creates skeleton components in a components directory on
// disk.
type Scaffolder struct {
	dir string
}

// NewScaffolder returns a Scaffolder writing into dir.
func NewScaffolder(dir string) *Scaffolder {
	return &Scaffolder{dir: dir}
}

// CreateComponent writes a manifest, template, stylesheet and script for
// name into a new directory. If the component's directory already exists,
// nothing is written and CreateComponent returns false.
func (s *Scaffolder) CreateComponent(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	for _, segment := range strings.Split(name, "/") {
		if !scaffoldSegment.MatchString(segment) {
			return false, fmt.Errorf("component name %q: segment %q must be letters, digits, '-' or '_': %w", name, segment, ErrInvalidName)
		}
	}
	dir := filepath.Join(s.dir, filepath.FromSlash(name))
	_, err := os.Stat(dir)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("error checking %q: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("error creating %q: %w", dir, err)
	}
	vars := struct{ Name, Base string }{Name: name, Base: baseName(name)}
	for _, file := range scaffoldFiles {
		var buf bytes.Buffer
		if err := file.tmpl.Execute(&buf, vars); err != nil {
			return false, fmt.Errorf("error generating %s file for %q: %w", file.ext, name, err)
		}
		target := filepath.Join(dir, vars.Base+file.ext)
		if err := atomic.WriteFile(target, &buf); err != nil {
			return false, fmt.Errorf("error writing %q: %w", target, err)
		}
	}
	return true, nil
}

package zest

import (
	"errors"
	"fmt"
	"html/template"
)

var (
	// ErrComponentNotFound is returned when no file in the search order
	// and no registered logic matches a component name.
	ErrComponentNotFound = errors.New("component not found")

	// ErrTemplateNotFound is returned when a template ID doesn't match a
	// file in any of the engine's search paths.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrRenderFailure is returned when preparing data or executing a
	// template fails.
	ErrRenderFailure = errors.New("render failure")

	// ErrNoRenderTarget is returned when a component has neither a
	// self-rendering logic object nor a template.
	ErrNoRenderTarget = errors.New("no render method or template")

	// ErrNestingTooDeep is returned when components are rendered inside
	// one another more than MaxNestingDepth times, usually because a
	// component includes itself.
	ErrNestingTooDeep = errors.New("components nested too deeply")

	// ErrInvalidName is returned when a component name would escape the
	// components root, or is otherwise unusable as a path.
	ErrInvalidName = errors.New("invalid component name")

	// ErrDuplicateLogic is returned when logic is registered twice for
	// the same component name.
	ErrDuplicateLogic = errors.New("logic already registered")
)

// RenderError describes why a component could not be rendered. Kind is
// always one of the package's sentinel errors, so callers can use
// errors.Is against it.
type RenderError struct {
	Component string
	Kind      error
	Err       error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("error rendering component %q: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("error rendering component %q: %s: %s", e.Component, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *RenderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsNotFound reports whether err means the component or its template could
// not be located.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrComponentNotFound) || errors.Is(err, ErrInvalidName) || errors.Is(err, ErrTemplateNotFound)
}

const genericRenderFailure = "An error occurred while rendering the component."

// diagnostic turns a render error into the inline text shown in place of
// the component. Internals are only included when debug is true.
func diagnostic(name string, err error, debug bool) template.HTML {
	var msg string
	switch {
	case errors.Is(err, ErrComponentNotFound), errors.Is(err, ErrInvalidName):
		msg = "Component not found: " + name
	case errors.Is(err, ErrNoRenderTarget):
		msg = "No render method or template found for component: " + name
	case errors.Is(err, ErrTemplateNotFound):
		msg = "Template not found for component: " + name
	case debug:
		cause := err
		var renderErr *RenderError
		if errors.As(err, &renderErr) && renderErr.Err != nil {
			cause = renderErr.Err
		}
		msg = "Error rendering component " + name + ": " + cause.Error()
	default:
		msg = genericRenderFailure
	}
	return template.HTML(template.HTMLEscapeString(msg)) // #nosec G203
}

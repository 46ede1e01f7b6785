// Package zest renders reusable HTML components and page templates, and
// keeps track of the CSS and JavaScript those components need.
//
// A component is a directory named after the component, holding any of
// Name.toml (the manifest, with default data), Name.tmpl (an html/template
// template), Name.css and Name.js. Directories that aren't components group
// the components inside them, so components/forms/Input/Input.tmpl is the
// component "forms/Input".
//
// zest is organized around a Registry, an Engine and a Renderer. The
// Registry knows where components live and resolves names to files; it
// also holds the Go logic registered for components. The Engine renders
// templates by ID; HTMLEngine is the html/template implementation. The
// Renderer ties them together: it resolves a component, runs its logic's
// Prepare on the data, renders it either through the logic's own Render
// or through its template, and records the component's assets.
//
// All three should be constructed once at startup and shared between
// requests. What belongs to a single request, the assets its components
// contributed, lives in a Scope carried by the request's context.Context;
// Middleware installs a fresh one for every request.
//
// Templates can render components inline:
//
//	{{ component "Button" (dict "type" "danger" "text" "Delete") }}
//
// and pages can link everything the components on them asked for:
//
//	{{ range componentCSS }}<link rel="stylesheet" href="{{ . }}">{{ end }}
package zest

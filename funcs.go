package zest

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// FuncMap returns the functions available to templates rendered with ctx:
//
//	component name [data] [loadAssets]  renders a component inline
//	asset path                           "/static/<path>"
//	url path                             "/<path>"
//	dict key value ...                   builds a Data for component
//	componentCSS                         stylesheet URLs recorded so far
//	componentJS                          script URLs recorded so far
func (r *Renderer) FuncMap(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"component": func(name string, args ...any) (template.HTML, error) {
			data, loadAssets, err := componentArgs(args)
			if err != nil {
				return "", fmt.Errorf("component %q: %w", name, err)
			}
			return r.RenderComponent(ctx, name, data, loadAssets), nil
		},
		"asset": func(path string) string {
			return r.opts.BaseURL + "/static/" + strings.TrimLeft(path, "/")
		},
		"url": func(path ...string) string {
			return r.opts.BaseURL + "/" + strings.TrimLeft(strings.Join(path, ""), "/")
		},
		"dict": dict,
		"componentCSS": func() []string {
			if scope := ScopeFromContext(ctx); scope != nil {
				return scope.Assets().CSS()
			}
			return nil
		},
		"componentJS": func() []string {
			if scope := ScopeFromContext(ctx); scope != nil {
				return scope.Assets().JS()
			}
			return nil
		},
	}
}

// componentArgs unpacks the optional data and loadAssets arguments of the
// component template function.
func componentArgs(args []any) (Data, bool, error) {
	var data Data
	loadAssets := true
	if len(args) > 2 {
		return nil, false, errors.New("too many arguments")
	}
	if len(args) > 0 && args[0] != nil {
		var ok bool
		data, ok = args[0].(Data)
		if !ok {
			return nil, false, fmt.Errorf("data must be a map, got %T", args[0])
		}
	}
	if len(args) > 1 {
		var ok bool
		loadAssets, ok = args[1].(bool)
		if !ok {
			return nil, false, fmt.Errorf("loadAssets must be a bool, got %T", args[1])
		}
	}
	return data, loadAssets, nil
}

func dict(pairs ...any) (Data, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	result := make(Data, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d must be a string, got %T", i/2, pairs[i])
		}
		result[key] = pairs[i+1]
	}
	return result, nil
}

package server

import (
	"errors"
	"io/fs"
	"path"

	"impractical.co/zest"
)

// assetFS exposes only the stylesheets and scripts of its layers, so
// manifests and templates stay private. Each file is opened from the first
// layer that has it.
type assetFS []fs.FS

func (a assetFS) Open(name string) (fs.File, error) {
	notFound := &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	if !fs.ValidPath(name) {
		return nil, notFound
	}
	if ext := path.Ext(name); ext != zest.CSSExt && ext != zest.JSExt {
		return nil, notFound
	}
	for _, layer := range a {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, notFound
}

// namespaceAssets serves a namespace's URL prefix. The namespace root comes
// first, the way the registry resolves names; the default root's directory
// of the same name backs it, so a component there keeps working URLs.
func namespaceAssets(ns string, nsFS, components fs.FS) assetFS {
	layers := assetFS{nsFS}
	if components != nil {
		if sub, err := fs.Sub(components, ns); err == nil {
			layers = append(layers, sub)
		}
	}
	return layers
}

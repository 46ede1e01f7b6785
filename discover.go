package zest

import (
	"context"
	"io/fs"
	"path"
)

// Discover walks fsys depth-first and returns the names of the components
// it contains, in lexical order. A directory D is a component if it holds
// D.toml or D.tmpl; any other directory is treated as a category, and the
// components under it are named "D/<child>".
//
// Directories that can't be read are logged and skipped. The walk stops
// descending after the registry's MaxDepth levels, which also breaks
// symlink cycles.
func (r *Registry) Discover(ctx context.Context, fsys fs.FS) ([]string, error) {
	names := []string{}
	r.walk(ctx, fsys, ".", "", 0, &names)
	return names, ctx.Err()
}

func (r *Registry) walk(ctx context.Context, fsys fs.FS, dir, prefix string, depth int, names *[]string) {
	if ctx.Err() != nil {
		return
	}
	if depth >= r.maxDepth {
		logger(ctx).WarnContext(ctx, "component discovery depth limit reached", "dir", dir, "max_depth", r.maxDepth)
		return
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		logger(ctx).DebugContext(ctx, "skipping unreadable directory", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if !isDir(fsys, dir, entry) {
			continue
		}
		child := path.Join(dir, entry.Name())
		name := entry.Name()
		if prefix != "" {
			name = prefix + "/" + name
		}
		if isComponentDir(ctx, fsys, child, entry.Name()) {
			*names = append(*names, name)
			continue
		}
		r.walk(ctx, fsys, child, name, depth+1, names)
	}
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(fsys fs.FS, dir string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := fs.Stat(fsys, path.Join(dir, entry.Name()))
	if err != nil {
		return false
	}
	return info.IsDir()
}

func isComponentDir(ctx context.Context, fsys fs.FS, dir, stem string) bool {
	return existingFile(ctx, fsys, path.Join(dir, stem+LogicExt)) != "" ||
		existingFile(ctx, fsys, path.Join(dir, stem+TemplateExt)) != ""
}

package zest

import (
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the contents of a component's Name.toml file.
//
//	description = "A button"
//
//	[defaults]
//	text = "Button"
//	type = "primary"
type Manifest struct {
	// Description is free text shown by tooling.
	Description string `toml:"description"`

	// Defaults are merged under the data a component is rendered with;
	// keys the caller supplies win.
	Defaults Data `toml:"defaults"`
}

func readManifest(fsys fs.FS, name string) (Manifest, error) {
	contents, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Manifest{}, fmt.Errorf("error reading manifest %q: %w", name, err)
	}
	var manifest Manifest
	if err := toml.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("error parsing manifest %q: %w", name, err)
	}
	return manifest, nil
}

// prepare returns data with the manifest defaults filled in underneath it.
// data is not modified.
func (m Manifest) prepare(data Data) Data {
	result := make(Data, len(m.Defaults)+len(data))
	for k, v := range m.Defaults {
		result[k] = v
	}
	for k, v := range data {
		result[k] = v
	}
	return result
}

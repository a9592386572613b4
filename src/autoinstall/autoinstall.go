// Package autoinstall reads the apt section of an autoinstall document.
package autoinstall

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sofmeright/aptmirror/src/tree"
)

const (
	// SectionKey is the autoinstall key holding mirror overrides.
	SectionKey = "apt"

	wrapperKey = "autoinstall"
	versionKey = "version"

	// Version is the only supported autoinstall schema version.
	Version = 1
)

// Load reads the autoinstall document at path and returns its apt section.
func Load(path string) (*tree.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("autoinstall: reading %s: %w", path, err)
	}
	section, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("autoinstall: %s: %w", path, err)
	}
	return section, nil
}

// Parse decodes an autoinstall document and returns its apt section, or nil
// when the document has none. Documents may be bare or wrapped in a
// top-level "autoinstall" key, as in cloud-init user-data.
func Parse(data []byte) (*tree.Map, error) {
	var doc tree.Map
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	root := &doc
	if wrapped, ok := doc.Get(wrapperKey); ok {
		m, ok := wrapped.AsMap()
		if !ok {
			return nil, fmt.Errorf("%s must be a mapping, got %s", wrapperKey, wrapped.Kind())
		}
		root = m
	}

	if err := checkVersion(root); err != nil {
		return nil, err
	}

	v, ok := root.Get(SectionKey)
	if !ok || v.IsNull() {
		return nil, nil
	}
	section, ok := v.AsMap()
	if !ok {
		return nil, fmt.Errorf("%s must be a mapping, got %s", SectionKey, v.Kind())
	}
	return section, nil
}

func checkVersion(root *tree.Map) error {
	v, ok := root.Get(versionKey)
	if !ok {
		return nil
	}
	ver, ok := v.AsInt()
	if !ok {
		return fmt.Errorf("%s must be an integer, got %s", versionKey, v.Kind())
	}
	if ver != Version {
		return fmt.Errorf("unsupported %s %d (supported: %d)", versionKey, ver, Version)
	}
	return nil
}

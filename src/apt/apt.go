// Package apt resolves apt mirror entries in a curtin-style apt
// configuration tree.
//
// A mirror section (such as "primary") is a list of entries:
//
//	primary:
//	  - arches: [amd64, i386]
//	    uri: http://archive.ubuntu.com/ubuntu
//	  - arches: [default]
//	    uri: http://ports.ubuntu.com/ubuntu-ports
//
// For a given architecture the first entry listing it wins; otherwise the
// entry tagged "default" is used.
package apt

import (
	"fmt"
	"slices"

	"github.com/sofmeright/aptmirror/src/tree"
)

const (
	// SectionPrimary is the mirror section packages are installed from.
	SectionPrimary = "primary"
	// SectionSecurity is the mirror section security updates come from.
	SectionSecurity = "security"

	// DefaultArch tags the entry used when no entry lists the architecture.
	DefaultArch = "default"

	ArchiveURI = "http://archive.ubuntu.com/ubuntu"
	PortsURI   = "http://ports.ubuntu.com/ubuntu-ports"
)

// Entry keys.
const (
	KeyArches = "arches"
	KeyURI    = "uri"
	KeySearch = "search"
)

// PrimaryArches returns the architectures served by the main archive. All
// other architectures are served by the ports archive.
func PrimaryArches() []string {
	return []string{"amd64", "i386"}
}

// ArchEntry is one candidate mirror of a section.
type ArchEntry struct {
	Arches []string
	URI    string
	// Search lists candidate URIs tried in order when URI is empty.
	Search []string
}

// Matches reports whether the entry explicitly lists arch.
func (e ArchEntry) Matches(arch string) bool {
	return slices.Contains(e.Arches, arch)
}

// IsDefault reports whether the entry is tagged as the fallback.
func (e ArchEntry) IsDefault() bool {
	return e.Matches(DefaultArch)
}

// Value renders the entry as a tree mapping.
func (e ArchEntry) Value() tree.Value {
	m := tree.NewMap()
	m.Set(KeyArches, tree.Strings(e.Arches...))
	if e.URI != "" {
		m.Set(KeyURI, tree.String(e.URI))
	}
	if len(e.Search) > 0 {
		m.Set(KeySearch, tree.Strings(e.Search...))
	}
	return tree.Mapping(m)
}

// DecodeArchEntry reads an entry from a tree mapping.
func DecodeArchEntry(v tree.Value) (ArchEntry, error) {
	m, ok := v.AsMap()
	if !ok {
		return ArchEntry{}, fmt.Errorf("mirror entry must be a mapping, got %s", v.Kind())
	}

	var e ArchEntry
	e.Arches = archesOf(m)
	if uv, ok := m.Get(KeyURI); ok && !uv.IsNull() {
		uri, ok := uv.AsString()
		if !ok {
			return ArchEntry{}, fmt.Errorf("%s must be a string, got %s", KeyURI, uv.Kind())
		}
		e.URI = uri
	}
	if sv, ok := m.Get(KeySearch); ok && !sv.IsNull() {
		search, ok := sv.AsStrings()
		if !ok {
			return ArchEntry{}, fmt.Errorf("%s must be a list of strings", KeySearch)
		}
		e.Search = search
	}
	return e, nil
}

// Entries decodes every entry of section.
func Entries(cfg *tree.Map, section string) ([]ArchEntry, error) {
	items, err := sectionItems(cfg, section)
	if err != nil {
		return nil, err
	}
	entries := make([]ArchEntry, 0, len(items))
	for i, item := range items {
		e, err := DecodeArchEntry(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", section, i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SectionValue renders entries as a section list.
func SectionValue(entries []ArchEntry) tree.Value {
	items := make([]tree.Value, len(entries))
	for i, e := range entries {
		items[i] = e.Value()
	}
	return tree.Seq(items...)
}

// ArchMirrorConfig returns the entry of section that applies to arch. The
// returned mapping is the one held by cfg, so writes to it update cfg.
func ArchMirrorConfig(cfg *tree.Map, section, arch string) (*tree.Map, error) {
	items, err := sectionItems(cfg, section)
	if err != nil {
		return nil, &NotFoundError{Section: section, Arch: arch, Reason: err.Error()}
	}

	var fallback *tree.Map
	for _, item := range items {
		entry, ok := item.AsMap()
		if !ok {
			continue
		}
		arches := archesOf(entry)
		if slices.Contains(arches, arch) {
			return entry, nil
		}
		if slices.Contains(arches, DefaultArch) {
			fallback = entry
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, &NotFoundError{
		Section: section,
		Arch:    arch,
		Reason:  "no entry lists the architecture and no entry is tagged " + DefaultArch,
	}
}

// SetMirror points the entry of section that applies to arch at uri. Any
// search list on that entry is dropped so the explicit uri is used.
func SetMirror(cfg *tree.Map, section, arch, uri string) error {
	entry, err := ArchMirrorConfig(cfg, section, arch)
	if err != nil {
		return err
	}
	entry.Set(KeyURI, tree.String(uri))
	entry.Delete(KeySearch)
	return nil
}

func sectionItems(cfg *tree.Map, section string) ([]tree.Value, error) {
	v, ok := cfg.Get(section)
	if !ok || v.IsNull() {
		return nil, fmt.Errorf("section %q is not configured", section)
	}
	items, ok := v.AsSeq()
	if !ok {
		return nil, fmt.Errorf("section %q must be a list, got %s", section, v.Kind())
	}
	return items, nil
}

// archesOf reads the arches of an entry. A bare string is treated as a
// single architecture; anything else yields no arches.
func archesOf(entry *tree.Map) []string {
	v, ok := entry.Get(KeyArches)
	if !ok {
		return nil
	}
	if s, ok := v.AsString(); ok {
		return []string{s}
	}
	items, _ := v.AsSeq()
	arches := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.AsString(); ok {
			arches = append(arches, s)
		}
	}
	return arches
}

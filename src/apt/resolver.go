package apt

import (
	"net"
	"net/url"

	"github.com/sofmeright/aptmirror/src/tree"
)

// Resolver resolves the mirror URI of an entry. Entries with an explicit uri
// need no lookups; entries with only a search list use the first candidate
// whose host resolves.
type Resolver struct {
	// Lookup reports whether host resolves. Nil uses the system resolver.
	Lookup func(host string) bool
}

// Mirror returns the mirror URI of section for arch.
func (r Resolver) Mirror(cfg *tree.Map, section, arch string) (string, error) {
	entry, err := ArchMirrorConfig(cfg, section, arch)
	if err != nil {
		return "", err
	}

	e, err := DecodeArchEntry(tree.Mapping(entry))
	if err != nil {
		return "", &NotFoundError{Section: section, Arch: arch, Reason: err.Error()}
	}
	if e.URI != "" {
		return e.URI, nil
	}
	if uri, ok := r.Search(e.Search); ok {
		return uri, nil
	}
	return "", &NotFoundError{
		Section: section,
		Arch:    arch,
		Reason:  "entry has no uri and no resolvable search candidate",
	}
}

// Search returns the first candidate whose host resolves.
func (r Resolver) Search(candidates []string) (string, bool) {
	for _, c := range candidates {
		u, err := url.Parse(c)
		if err != nil || u.Hostname() == "" {
			continue
		}
		if r.resolvable(u.Hostname()) {
			return c, true
		}
	}
	return "", false
}

func (r Resolver) resolvable(host string) bool {
	if r.Lookup != nil {
		return r.Lookup(host)
	}
	addrs, err := net.LookupHost(host)
	return err == nil && len(addrs) > 0
}

// Mirror resolves with the system resolver.
func Mirror(cfg *tree.Map, section, arch string) (string, error) {
	return Resolver{}.Mirror(cfg, section, arch)
}

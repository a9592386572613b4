// Package mirror holds the installer's apt mirror configuration: which
// archive the target system installs from and which archive components are
// disabled.
//
// A Model starts from a Baseline, may take one or more autoinstall
// overrides, is then adjusted by user actions (mirror, country, components)
// and is finally read through AptConfig by the apt configuration writer.
// A Model is not safe for concurrent use.
package mirror

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/sofmeright/aptmirror/src/apt"
	"github.com/sofmeright/aptmirror/src/arch"
	"github.com/sofmeright/aptmirror/src/tree"
)

// Model is the mirror configuration of one installer run.
type Model struct {
	config        *tree.Map
	disabled      map[string]struct{}
	architecture  string
	defaultMirror string

	resolver apt.Resolver
	log      zerolog.Logger
}

// Option adjusts a Model under construction.
type Option func(*Model)

// WithLogger sets the logger used for mirror changes.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// WithResolver sets the resolver used for entries that only carry search
// candidates.
func WithResolver(r apt.Resolver) Option {
	return func(m *Model) { m.resolver = r }
}

// New builds a model from baseline for the architecture reported by prober.
// The resolved mirror at this point becomes the default mirror.
func New(baseline Baseline, prober arch.Prober, opts ...Option) (*Model, error) {
	m := &Model{
		config:   baseline.Tree(),
		disabled: make(map[string]struct{}),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	a, err := prober.Architecture()
	if err != nil {
		return nil, err
	}
	m.architecture = a

	def, err := m.Mirror()
	if err != nil {
		return nil, fmt.Errorf("mirror: baseline has no mirror for %s: %w", a, err)
	}
	m.defaultMirror = def

	m.log.Debug().Str("arch", a).Str("mirror", def).Msg("mirror model ready")
	return m, nil
}

// Architecture returns the target architecture.
func (m *Model) Architecture() string { return m.architecture }

// DefaultMirror returns the mirror resolved at construction.
func (m *Model) DefaultMirror() string { return m.defaultMirror }

// LoadOverrides applies autoinstall data. A disable_components list replaces
// the disabled set; the rest of data is merged into the configuration
// (mappings merge, scalars and lists replace). data itself is not modified.
func (m *Model) LoadOverrides(data *tree.Map) error {
	data = data.Clone()

	if v, ok := data.Delete(keyDisableComponents); ok {
		comps, err := componentList(v)
		if err != nil {
			return err
		}
		m.disabled = make(map[string]struct{}, len(comps))
		for _, c := range comps {
			m.disabled[c] = struct{}{}
		}
	}

	tree.Merge(m.config, data)
	m.log.Debug().Strs("keys", data.Keys()).Msg("autoinstall overrides merged")
	return nil
}

func componentList(v tree.Value) ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	comps, ok := v.AsStrings()
	if !ok {
		return nil, fmt.Errorf("mirror: %s must be a list of strings, got %s", keyDisableComponents, v.Kind())
	}
	return comps, nil
}

// AptConfig returns a copy of the configuration with the sorted disabled
// components under disable_components.
func (m *Model) AptConfig() *tree.Map {
	cfg := m.config.Clone()
	cfg.Set(keyDisableComponents, tree.Strings(m.DisabledComponents()...))
	return cfg
}

// DisabledComponents returns the disabled components, sorted.
func (m *Model) DisabledComponents() []string {
	out := make([]string, 0, len(m.disabled))
	for c := range m.disabled {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// MirrorIsDefault reports whether the mirror still equals the default.
func (m *Model) MirrorIsDefault() (bool, error) {
	cur, err := m.Mirror()
	if err != nil {
		return false, err
	}
	return cur == m.defaultMirror, nil
}

// SetCountry switches to the country mirror for cc. A mirror the user
// already changed is left alone, and so repeated calls never stack country
// prefixes.
func (m *Model) SetCountry(cc string) error {
	isDefault, err := m.MirrorIsDefault()
	if err != nil {
		return err
	}
	if !isDefault {
		m.log.Debug().Str("country", cc).Msg("mirror was changed, ignoring country")
		return nil
	}

	cur, err := m.Mirror()
	if err != nil {
		return err
	}
	uri, err := Countrify(cur, cc)
	if err != nil {
		return err
	}
	return m.SetMirror(uri)
}

// Mirror returns the primary mirror for the target architecture.
func (m *Model) Mirror() (string, error) {
	return m.resolver.Mirror(m.config, apt.SectionPrimary, m.architecture)
}

// SetMirror points the primary entry for the target architecture at uri. It
// fails with *apt.NotFoundError when no entry applies.
func (m *Model) SetMirror(uri string) error {
	if err := apt.SetMirror(m.config, apt.SectionPrimary, m.architecture, uri); err != nil {
		return err
	}
	m.log.Debug().Str("arch", m.architecture).Str("uri", uri).Msg("mirror set")
	return nil
}

// DisableComponents adds comps to the disabled set, or removes them when add
// is false. Removing an absent component does nothing.
func (m *Model) DisableComponents(comps []string, add bool) {
	for _, c := range comps {
		if add {
			m.disabled[c] = struct{}{}
		} else {
			delete(m.disabled, c)
		}
	}
}

// Render returns the model's contribution to the installer configuration,
// which is empty: the apt writer consumes AptConfig instead.
func (m *Model) Render() *tree.Map {
	return tree.NewMap()
}

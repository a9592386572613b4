package mirror

import (
	"github.com/sofmeright/aptmirror/src/apt"
	"github.com/sofmeright/aptmirror/src/tree"
)

const (
	keyPreserveSourcesList = "preserve_sources_list"
	keyDisableComponents   = "disable_components"
)

// Baseline is the configuration a model starts from. It is copied on every
// use, so one Baseline can seed any number of models.
type Baseline struct {
	PreserveSourcesList bool
	Primary             []apt.ArchEntry
}

// DefaultBaseline sends primary architectures to the main archive and every
// other architecture to the ports archive.
func DefaultBaseline() Baseline {
	return Baseline{
		PreserveSourcesList: false,
		Primary: []apt.ArchEntry{
			{Arches: apt.PrimaryArches(), URI: apt.ArchiveURI},
			{Arches: []string{apt.DefaultArch}, URI: apt.PortsURI},
		},
	}
}

// Tree renders the baseline as a fresh configuration tree.
func (b Baseline) Tree() *tree.Map {
	m := tree.NewMap()
	m.Set(keyPreserveSourcesList, tree.Bool(b.PreserveSourcesList))
	m.Set(apt.SectionPrimary, apt.SectionValue(b.Primary))
	return m
}

package apt

import (
	"errors"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/sofmeright/aptmirror/src/tree"
)

func defaultConfig() *tree.Map {
	cfg := tree.NewMap()
	cfg.Set(SectionPrimary, SectionValue([]ArchEntry{
		{Arches: PrimaryArches(), URI: ArchiveURI},
		{Arches: []string{DefaultArch}, URI: PortsURI},
	}))
	return cfg
}

func TestMirrorResolution(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		arch string
		want string
	}{
		{"amd64", ArchiveURI},
		{"i386", ArchiveURI},
		{"arm64", PortsURI},
		{"s390x", PortsURI},
	}
	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			got, err := Mirror(cfg, SectionPrimary, tt.arch)
			if err != nil {
				t.Fatalf("Mirror: %v", err)
			}
			if got != tt.want {
				t.Errorf("Mirror(%s) = %q, want %q", tt.arch, got, tt.want)
			}
		})
	}
}

func TestExplicitArchBeatsDefault(t *testing.T) {
	cfg := tree.NewMap()
	cfg.Set(SectionPrimary, SectionValue([]ArchEntry{
		{Arches: []string{DefaultArch}, URI: "http://fallback"},
		{Arches: []string{"arm64"}, URI: "http://arm"},
	}))

	got, err := Mirror(cfg, SectionPrimary, "arm64")
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if got != "http://arm" {
		t.Errorf("got %q, want explicit entry", got)
	}
}

func TestMirrorNotFound(t *testing.T) {
	tests := []struct {
		name string
		cfg  *tree.Map
	}{
		{"missing section", tree.NewMap()},
		{"no default", func() *tree.Map {
			cfg := tree.NewMap()
			cfg.Set(SectionPrimary, SectionValue([]ArchEntry{{Arches: []string{"amd64"}, URI: ArchiveURI}}))
			return cfg
		}()},
		{"section not a list", func() *tree.Map {
			cfg := tree.NewMap()
			cfg.Set(SectionPrimary, tree.String("http://x"))
			return cfg
		}()},
		{"entry without uri", func() *tree.Map {
			cfg := tree.NewMap()
			cfg.Set(SectionPrimary, SectionValue([]ArchEntry{{Arches: []string{DefaultArch}}}))
			return cfg
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Mirror(tt.cfg, SectionPrimary, "riscv64")
			if err == nil {
				t.Fatal("expected error")
			}
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected *NotFoundError, got %T", err)
			}
			if !errdefs.IsNotFound(err) {
				t.Errorf("errdefs.IsNotFound = false for %v", err)
			}
			if nf.Arch != "riscv64" || nf.Section != SectionPrimary {
				t.Errorf("unexpected error fields: %+v", nf)
			}
		})
	}
}

func TestSetMirrorUpdatesInPlace(t *testing.T) {
	cfg := defaultConfig()

	if err := SetMirror(cfg, SectionPrimary, "arm64", "http://ports.example"); err != nil {
		t.Fatalf("SetMirror: %v", err)
	}

	if got, _ := Mirror(cfg, SectionPrimary, "arm64"); got != "http://ports.example" {
		t.Errorf("arm64 mirror = %q", got)
	}
	if got, _ := Mirror(cfg, SectionPrimary, "amd64"); got != ArchiveURI {
		t.Errorf("amd64 mirror changed to %q", got)
	}

	entries, err := Entries(cfg, SectionPrimary)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("SetMirror must not add entries, have %d", len(entries))
	}
}

func TestSetMirrorNotFound(t *testing.T) {
	err := SetMirror(tree.NewMap(), SectionPrimary, "amd64", "http://x")
	if !errdefs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchCandidates(t *testing.T) {
	cfg := tree.NewMap()
	cfg.Set(SectionPrimary, SectionValue([]ArchEntry{{
		Arches: []string{DefaultArch},
		Search: []string{"http://down.example/ubuntu", "not a url", "http://up.example/ubuntu"},
	}}))

	var looked []string
	r := Resolver{Lookup: func(host string) bool {
		looked = append(looked, host)
		return host == "up.example"
	}}

	got, err := r.Mirror(cfg, SectionPrimary, "amd64")
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if got != "http://up.example/ubuntu" {
		t.Errorf("got %q", got)
	}
	if len(looked) != 2 {
		t.Errorf("looked up %v, want two hosts", looked)
	}

	if err := SetMirror(cfg, SectionPrimary, "amd64", "http://chosen"); err != nil {
		t.Fatalf("SetMirror: %v", err)
	}
	entries, _ := Entries(cfg, SectionPrimary)
	if entries[0].URI != "http://chosen" || len(entries[0].Search) != 0 {
		t.Errorf("explicit mirror should replace search list: %+v", entries[0])
	}
}

func TestSearchNothingResolves(t *testing.T) {
	cfg := tree.NewMap()
	cfg.Set(SectionPrimary, SectionValue([]ArchEntry{{
		Arches: []string{DefaultArch},
		Search: []string{"http://down.example/ubuntu"},
	}}))

	r := Resolver{Lookup: func(string) bool { return false }}
	if _, err := r.Mirror(cfg, SectionPrimary, "amd64"); !errdefs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecodeArchEntry(t *testing.T) {
	m := tree.NewMap()
	m.Set(KeyArches, tree.String("amd64"))
	m.Set(KeyURI, tree.String(ArchiveURI))

	e, err := DecodeArchEntry(tree.Mapping(m))
	if err != nil {
		t.Fatalf("DecodeArchEntry: %v", err)
	}
	if !e.Matches("amd64") || e.IsDefault() {
		t.Errorf("bare string arches not read: %+v", e)
	}

	m.Set(KeyURI, tree.Int(3))
	if _, err := DecodeArchEntry(tree.Mapping(m)); err == nil {
		t.Errorf("expected error for non-string uri")
	}
	if _, err := DecodeArchEntry(tree.String("x")); err == nil {
		t.Errorf("expected error for non-mapping entry")
	}
}

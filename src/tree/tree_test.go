package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, doc string) *Map {
	t.Helper()

	var m Map
	if err := yaml.Unmarshal([]byte(doc), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &m
}

func TestMergeSemantics(t *testing.T) {
	dst := mustParse(t, `
preserve_sources_list: false
primary:
  - arches: [amd64]
    uri: http://a
  - arches: [default]
    uri: http://b
security:
  uri: http://sec
  keep: true
`)
	src := mustParse(t, `
preserve_sources_list: true
primary:
  - arches: [default]
    uri: http://c
security:
  uri: http://sec2
geoip: false
`)

	Merge(dst, src)

	if v, _ := dst.Get("preserve_sources_list"); !v.Equal(Bool(true)) {
		t.Errorf("scalar not overwritten: %v", v.Any())
	}

	primary, _ := dst.Get("primary")
	items, ok := primary.AsSeq()
	if !ok || len(items) != 1 {
		t.Fatalf("sequence should be replaced wholesale, got %v", primary.Any())
	}

	secV, _ := dst.Get("security")
	sec, _ := secV.AsMap()
	if uri, _ := sec.Get("uri"); !uri.Equal(String("http://sec2")) {
		t.Errorf("nested scalar not overwritten: %v", uri.Any())
	}
	if keep, ok := sec.Get("keep"); !ok || !keep.Equal(Bool(true)) {
		t.Errorf("nested mapping should be merged, lost keep: %v", sec.Any())
	}

	if !dst.Has("geoip") {
		t.Errorf("new key not added")
	}

	want := []string{"preserve_sources_list", "primary", "security", "geoip"}
	if got := dst.Keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("key order = %v, want %v", got, want)
	}
}

func TestMergeCopiesSource(t *testing.T) {
	dst := NewMap()
	src := mustParse(t, "primary:\n  - uri: http://a\n")

	Merge(dst, src)

	srcPrimary, _ := src.Get("primary")
	items, _ := srcPrimary.AsSeq()
	entry, _ := items[0].AsMap()
	entry.Set("uri", String("http://mutated"))

	dstPrimary, _ := dst.Get("primary")
	dstItems, _ := dstPrimary.AsSeq()
	dstEntry, _ := dstItems[0].AsMap()
	if uri, _ := dstEntry.Get("uri"); !uri.Equal(String("http://a")) {
		t.Errorf("merge aliased source data: uri = %v", uri.Any())
	}
}

func TestMergeMappingOverScalar(t *testing.T) {
	dst := mustParse(t, "sources: none\n")
	src := mustParse(t, "sources:\n  ppa: {source: x}\n")

	Merge(dst, src)

	v, _ := dst.Get("sources")
	if v.Kind() != KindMapping {
		t.Errorf("mapping should replace scalar, got %s", v.Kind())
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := mustParse(t, "a:\n  b: [1, 2]\n")
	c := orig.Clone()

	av, _ := c.Get("a")
	am, _ := av.AsMap()
	am.Set("b", Strings("x"))

	ov, _ := orig.Get("a")
	om, _ := ov.AsMap()
	if b, _ := om.Get("b"); !b.Equal(Seq(Int(1), Int(2))) {
		t.Errorf("clone shares nested state: %v", b.Any())
	}
}

func TestDeleteKeepsOrder(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Set("c", Int(3))

	v, ok := m.Delete("b")
	if !ok || !v.Equal(Int(2)) {
		t.Fatalf("Delete returned %v, %v", v.Any(), ok)
	}
	if _, ok := m.Delete("b"); ok {
		t.Errorf("second delete should report absence")
	}
	if got := strings.Join(m.Keys(), ","); got != "a,c" {
		t.Errorf("keys = %s", got)
	}
	m.Set("b", Int(4))
	if got := strings.Join(m.Keys(), ","); got != "a,c,b" {
		t.Errorf("re-added key order = %s", got)
	}
}

func TestYAMLScalars(t *testing.T) {
	m := mustParse(t, `
flag: true
count: 3
ratio: 0.5
name: archive
empty: ~
quoted: "true"
`)

	tests := []struct {
		key  string
		want Value
	}{
		{"flag", Bool(true)},
		{"count", Int(3)},
		{"ratio", Float(0.5)},
		{"name", String("archive")},
		{"empty", Null()},
		{"quoted", String("true")},
	}
	for _, tt := range tests {
		got, ok := m.Get(tt.key)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("%s = %#v, want %#v", tt.key, got.Any(), tt.want.Any())
		}
	}
}

func TestYAMLMergeKeys(t *testing.T) {
	m := mustParse(t, `
base: &base
  uri: http://base
  arches: [default]
entry:
  uri: http://explicit
  <<: *base
`)

	ev, _ := m.Get("entry")
	entry, _ := ev.AsMap()
	if uri, _ := entry.Get("uri"); !uri.Equal(String("http://explicit")) {
		t.Errorf("explicit key lost to merge key: %v", uri.Any())
	}
	if arches, _ := entry.Get("arches"); !arches.Equal(Strings("default")) {
		t.Errorf("merged key missing: %v", arches.Any())
	}
}

func TestYAMLRejectsNonMapping(t *testing.T) {
	var m Map
	if err := yaml.Unmarshal([]byte("- a\n- b\n"), &m); err == nil {
		t.Fatal("expected error decoding a sequence into a Map")
	}
}

func TestYAMLEncodePreservesOrderAndQuoting(t *testing.T) {
	m := NewMap()
	m.Set("zeta", String("true"))
	m.Set("alpha", Int(1))
	m.Set("list", Strings("b", "a"))

	out, err := yaml.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := "zeta: \"true\"\nalpha: 1\nlist:\n    - b\n    - a\n"
	if string(out) != want {
		t.Errorf("yaml =\n%s\nwant\n%s", out, want)
	}
}

func TestJSONEncodePreservesOrder(t *testing.T) {
	m := NewMap()
	m.Set("primary", Seq(Mapping(entry("http://a", "amd64"))))
	m.Set("disable_components", Strings())
	m.Set("preserve_sources_list", Bool(false))

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"primary":[{"arches":["amd64"],"uri":"http://a"}],"disable_components":[],"preserve_sources_list":false}`
	if string(out) != want {
		t.Errorf("json = %s\nwant %s", out, want)
	}
}

func entry(uri string, arches ...string) *Map {
	m := NewMap()
	m.Set("arches", Strings(arches...))
	m.Set("uri", String(uri))
	return m
}

func TestYAMLRepeatedAliases(t *testing.T) {
	m := mustParse(t, "base: &x {uri: http://a}\none: *x\ntwo: *x\n")

	one, _ := m.Get("one")
	two, _ := m.Get("two")
	if !one.Equal(two) {
		t.Errorf("aliases decoded differently: %v / %v", one.Any(), two.Any())
	}
}

func TestYAMLRejectsRecursiveAlias(t *testing.T) {
	for name, doc := range map[string]string{
		"value":     "apt: &x\n  primary: *x\n",
		"sequence":  "apt: &x\n  - *x\n",
		"merge key": "apt: &x\n  uri: http://a\n  <<: *x\n",
	} {
		t.Run(name, func(t *testing.T) {
			var m Map
			err := yaml.Unmarshal([]byte(doc), &m)
			if !errors.Is(err, ErrRecursiveAlias) {
				t.Errorf("err = %v, want %v", err, ErrRecursiveAlias)
			}
		})
	}
}

// aliasBomb builds a document whose last anchor expands to width^levels
// scalars.
func aliasBomb(levels, width int) string {
	var b strings.Builder
	b.WriteString("l0: &l0 [" + strings.TrimSuffix(strings.Repeat(`"x", `, width), ", ") + "]\n")
	for i := 1; i <= levels; i++ {
		refs := strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*l%d, ", i-1), width), ", ")
		fmt.Fprintf(&b, "l%d: &l%d [%s]\n", i, i, refs)
	}
	return b.String()
}

func TestYAMLRejectsExcessiveAliasing(t *testing.T) {
	var m Map
	err := yaml.Unmarshal([]byte(aliasBomb(9, 9)), &m)
	if !errors.Is(err, ErrExcessiveAliasing) {
		t.Fatalf("err = %v, want %v", err, ErrExcessiveAliasing)
	}

	// A couple of levels is ordinary anchor reuse.
	small := mustParse(t, aliasBomb(2, 3))
	l2, _ := small.Get("l2")
	if seq, _ := l2.AsSeq(); len(seq) != 3 {
		t.Errorf("l2 = %v", l2.Any())
	}
}

func TestAsStrings(t *testing.T) {
	if got, ok := Strings("a", "b").AsStrings(); !ok || len(got) != 2 {
		t.Errorf("AsStrings = %v, %v", got, ok)
	}
	if _, ok := Seq(String("a"), Int(1)).AsStrings(); ok {
		t.Errorf("mixed sequence should not convert")
	}
	if _, ok := String("a").AsStrings(); ok {
		t.Errorf("scalar should not convert")
	}
}

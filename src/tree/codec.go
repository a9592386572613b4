package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const mergeTag = "!!merge"

var (
	// ErrRecursiveAlias is returned for an alias used inside its own anchor.
	ErrRecursiveAlias = errors.New("recursive alias")

	// ErrExcessiveAliasing is returned for documents that expand mostly
	// through aliases.
	ErrExcessiveAliasing = errors.New("document contains excessive aliasing")
)

// UnmarshalYAML decodes any YAML node into v, keeping mapping key order.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	decoded, err := decodeNode(n)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// UnmarshalYAML decodes a YAML mapping into m. A null document decodes to an
// empty mapping.
func (m *Map) UnmarshalYAML(n *yaml.Node) error {
	decoded, err := decodeNode(n)
	if err != nil {
		return err
	}
	switch decoded.Kind() {
	case KindNull:
		*m = *NewMap()
	case KindMapping:
		*m = *decoded.m
	default:
		return fmt.Errorf("line %d: expected a mapping, got %s", n.Line, decoded.Kind())
	}
	return nil
}

// MarshalYAML encodes v with its mapping key order.
func (v Value) MarshalYAML() (any, error) {
	return v.Node(), nil
}

// MarshalYAML encodes m with its key order.
func (m *Map) MarshalYAML() (any, error) {
	return Mapping(m).Node(), nil
}

// Node renders v as a yaml.v3 node tree.
func (v Value) Node() *yaml.Node {
	switch v.kind {
	case KindBool:
		return scalarNode("!!bool", strconv.FormatBool(v.b))
	case KindInt:
		return scalarNode("!!int", strconv.FormatInt(v.i, 10))
	case KindFloat:
		return scalarNode("!!float", formatYAMLFloat(v.f))
	case KindString:
		return scalarNode("!!str", v.s)
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.seq {
			n.Content = append(n.Content, item.Node())
		}
		return n
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.m.Keys() {
			child, _ := v.m.Get(k)
			n.Content = append(n.Content, scalarNode("!!str", k), child.Node())
		}
		return n
	default:
		return scalarNode("!!null", "null")
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// nodeDecoder turns a yaml.v3 node tree into a Value. Aliases are expanded
// in place, so it refuses aliases that point into their own anchor and
// documents that expand mostly through aliases.
type nodeDecoder struct {
	expanding   map[*yaml.Node]bool
	aliasDepth  int
	decodeCount int
	aliasCount  int
}

func decodeNode(n *yaml.Node) (Value, error) {
	d := &nodeDecoder{expanding: make(map[*yaml.Node]bool)}
	return d.decode(n)
}

// allowedAliasRatio follows yaml.v3: small documents may be almost entirely
// aliases, large ones only up to 10%.
func allowedAliasRatio(decodeCount int) float64 {
	switch {
	case decodeCount <= 400_000:
		return 0.99
	case decodeCount >= 4_000_000:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decodeCount-400_000)/3_600_000)
	}
}

func (d *nodeDecoder) count(n *yaml.Node) error {
	d.decodeCount++
	if d.aliasDepth > 0 {
		d.aliasCount++
	}
	if d.aliasCount > 100 && d.decodeCount > 1000 &&
		float64(d.aliasCount)/float64(d.decodeCount) > allowedAliasRatio(d.decodeCount) {
		return fmt.Errorf("line %d: %w", n.Line, ErrExcessiveAliasing)
	}
	return nil
}

// alias resolves an alias node and marks its anchor as being expanded. The
// returned func must be called once the anchor has been decoded.
func (d *nodeDecoder) alias(n *yaml.Node) (*yaml.Node, func(), error) {
	if n.Alias == nil {
		return nil, nil, fmt.Errorf("line %d: unresolved alias %q", n.Line, n.Value)
	}
	if d.expanding[n.Alias] {
		return nil, nil, fmt.Errorf("line %d: alias %q refers to itself: %w", n.Line, n.Value, ErrRecursiveAlias)
	}
	d.expanding[n.Alias] = true
	d.aliasDepth++
	return n.Alias, func() {
		d.aliasDepth--
		delete(d.expanding, n.Alias)
	}, nil
}

func (d *nodeDecoder) decode(n *yaml.Node) (Value, error) {
	if err := d.count(n); err != nil {
		return Value{}, err
	}

	switch n.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return d.decode(n.Content[0])
	case yaml.AliasNode:
		target, done, err := d.alias(n)
		if err != nil {
			return Value{}, err
		}
		defer done()
		return d.decode(target)
	case yaml.ScalarNode:
		return scalarFromNode(n)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := d.decode(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Seq(items...), nil
	case yaml.MappingNode:
		m, err := d.mapping(n)
		if err != nil {
			return Value{}, err
		}
		return Mapping(m), nil
	default:
		return Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

// mapping decodes a mapping node. Explicit keys win over keys pulled in
// through "<<" merge keys, wherever the merge key appears.
func (d *nodeDecoder) mapping(n *yaml.Node) (*Map, error) {
	m := NewMap()
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		if k.ShortTag() == mergeTag {
			merges = append(merges, val)
			continue
		}
		child, err := d.decode(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k.Value, err)
		}
		m.Set(k.Value, child)
	}

	for _, src := range merges {
		if err := d.mergeKey(m, src); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (d *nodeDecoder) mergeKey(m *Map, src *yaml.Node) error {
	if src.Kind == yaml.AliasNode {
		target, done, err := d.alias(src)
		if err != nil {
			return err
		}
		defer done()
		src = target
	}
	var sources []*yaml.Node
	switch src.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{src}
	case yaml.SequenceNode:
		sources = src.Content
	default:
		return fmt.Errorf("line %d: merge key value must be a mapping or a list of mappings", src.Line)
	}
	for _, s := range sources {
		v, err := d.decode(s)
		if err != nil {
			return err
		}
		sm, ok := v.AsMap()
		if !ok {
			return fmt.Errorf("line %d: merge key value must be a mapping or a list of mappings", s.Line)
		}
		for _, k := range sm.Keys() {
			if m.Has(k) {
				continue
			}
			sv, _ := sm.Get(k)
			m.Set(k, sv)
		}
	}
	return nil
}

func scalarFromNode(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

// MarshalJSON encodes v as JSON, keeping mapping key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes m as a JSON object, keeping key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	return Mapping(m).MarshalJSON()
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range v.m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			child, _ := v.m.Get(k)
			if err := child.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		b, err := json.Marshal(v.Any())
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// Package output renders aptmirror results for terminals and pipes.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sofmeright/aptmirror/src/tree"
)

// Format is an encoding for configuration output.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat reads a format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatYAML, FormatJSON, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: yaml, json, toml)", raw)
	}
}

// Encode writes m to w in format. YAML and JSON keep the key order of m;
// TOML sorts keys.
func Encode(w io.Writer, format Format, m *tree.Map) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatTOML:
		b, err := toml.Marshal(m.Any())
		if err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
}

// MirrorSummary is the state shown by the mirror command.
type MirrorSummary struct {
	Architecture       string
	Mirror             string
	DefaultMirror      string
	IsDefault          bool
	Security           string // empty when no security mirror applies
	DisabledComponents []string
}

// WriteMirrorSummary renders s as a framed section.
func WriteMirrorSummary(w io.Writer, s MirrorSummary, color bool) {
	sec := NewSection(w, "Mirror", color)
	sec.Field("architecture", s.Architecture)
	sec.Field("mirror", fmt.Sprintf("%s  %s", s.Mirror, StatusIcon(s.IsDefault, color)))
	if !s.IsDefault {
		sec.Field("default", Dimmed(s.DefaultMirror, color))
	}
	if s.Security != "" {
		sec.Field("security", s.Security)
	}
	sec.Separator()
	disabled := "none"
	if len(s.DisabledComponents) > 0 {
		disabled = strings.Join(s.DisabledComponents, ", ")
	}
	sec.Field("disabled", disabled)
	sec.Close()
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

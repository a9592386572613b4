package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sofmeright/aptmirror/src/apt"
	"github.com/sofmeright/aptmirror/src/mirror"
)

const defaultConfigFile = ".aptmirror.yml"

// Config is the top-level aptmirror configuration.
type Config struct {
	Baseline BaselineConfig `yaml:"baseline" toml:"baseline"`

	// Architecture skips probing when set.
	Architecture string `yaml:"architecture" toml:"architecture"`

	// Target is the root of the system being installed; the architecture
	// is probed inside it.
	Target string `yaml:"target" toml:"target"`

	Log LogConfig `yaml:"log" toml:"log"`
}

// BaselineConfig describes the configuration a mirror model starts from.
type BaselineConfig struct {
	PreserveSourcesList bool     `yaml:"preserve_sources_list" toml:"preserve_sources_list"`
	ArchiveURI          string   `yaml:"archive_uri" toml:"archive_uri"`       // mirror for primary arches
	PortsURI            string   `yaml:"ports_uri" toml:"ports_uri"`           // mirror for every other arch
	PrimaryArches       []string `yaml:"primary_arches" toml:"primary_arches"` // arches served by archive_uri
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // trace, debug, info, warn, error, off
	Format string `yaml:"format" toml:"format"` // console or json
}

// Load reads configuration from a YAML or TOML file (by extension).
// If path is empty, it tries the default file.
// Returns defaults if the default file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := defaults()

	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Baseline: DefaultBaselineConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultBaselineConfig returns the stock Ubuntu archive layout.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{
		PreserveSourcesList: false,
		ArchiveURI:          apt.ArchiveURI,
		PortsURI:            apt.PortsURI,
		PrimaryArches:       apt.PrimaryArches(),
	}
}

// Baseline converts the configuration into a mirror model baseline.
func (b BaselineConfig) Baseline() mirror.Baseline {
	return mirror.Baseline{
		PreserveSourcesList: b.PreserveSourcesList,
		Primary: []apt.ArchEntry{
			{Arches: append([]string(nil), b.PrimaryArches...), URI: b.ArchiveURI},
			{Arches: []string{apt.DefaultArch}, URI: b.PortsURI},
		},
	}
}

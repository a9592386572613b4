package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sofmeright/aptmirror/src/apt"
	"github.com/sofmeright/aptmirror/src/logging"
)

// Validate checks a loaded Config and reports every problem at once.
func Validate(cfg *Config) error {
	var errs []string

	// ── Baseline ──────────────────────────────────────────────────────────

	for _, f := range []struct {
		name, uri string
	}{
		{"baseline.archive_uri", cfg.Baseline.ArchiveURI},
		{"baseline.ports_uri", cfg.Baseline.PortsURI},
	} {
		if msg := checkURI(f.uri); msg != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", f.name, msg))
		}
	}

	if len(cfg.Baseline.PrimaryArches) == 0 {
		errs = append(errs, "baseline.primary_arches: at least one architecture is required")
	}
	seen := make(map[string]bool)
	for i, a := range cfg.Baseline.PrimaryArches {
		switch {
		case strings.TrimSpace(a) == "":
			errs = append(errs, fmt.Sprintf("baseline.primary_arches[%d]: empty architecture", i))
		case a == apt.DefaultArch:
			errs = append(errs, fmt.Sprintf("baseline.primary_arches[%d]: %q is reserved for the ports entry", i, a))
		case seen[a]:
			errs = append(errs, fmt.Sprintf("baseline.primary_arches[%d]: duplicate architecture %q", i, a))
		}
		seen[a] = true
	}

	// ── Log ───────────────────────────────────────────────────────────────

	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", cfg.Log.Level))
	}
	if _, ok := logging.ParseFormat(cfg.Log.Format); !ok {
		errs = append(errs, fmt.Sprintf("log.format: unknown format %q (supported: console, json)", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func checkURI(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "uri is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err.Error()
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Sprintf("%q must be an absolute uri with a host", raw)
	}
	return ""
}

package cmd

import (
	"fmt"
	"os"

	"github.com/containerd/errdefs"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sofmeright/aptmirror/src/arch"
	"github.com/sofmeright/aptmirror/src/autoinstall"
	"github.com/sofmeright/aptmirror/src/config"
	"github.com/sofmeright/aptmirror/src/logging"
	"github.com/sofmeright/aptmirror/src/mirror"
)

var (
	cfgFile    string
	verbose    bool
	archFlag   string
	targetFlag string
	cfg        *config.Config
	logger     = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "aptmirror",
	Short: "Installer apt mirror configuration",
	Long: `aptmirror builds the apt mirror configuration of an installer run.

It starts from the stock Ubuntu archive layout, applies autoinstall
overrides and user choices (mirror, country, components) and prints the
resulting apt configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = setupLogging(cmd)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .aptmirror.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&archFlag, "arch", "", "target architecture (default: probed)")
	rootCmd.PersistentFlags().StringVar(&targetFlag, "target", "", "root of the target system to probe")
}

// setupLogging installs the process logger. Precedence: env > --verbose > config.
func setupLogging(cmd *cobra.Command) zerolog.Logger {
	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.Out = cmd.ErrOrStderr()
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		lc.Level = lvl
	}
	if json, ok := logging.ParseFormat(cfg.Log.Format); ok {
		lc.JSON = json
	}
	if verbose {
		lc.Level = zerolog.DebugLevel
	}
	logging.ApplyEnv(&lc)
	return logging.Install(lc)
}

// buildModel creates the mirror model for the current flags and config.
func buildModel() (*mirror.Model, error) {
	var prober arch.Prober
	switch {
	case archFlag != "":
		prober = arch.Static(archFlag)
	case cfg.Architecture != "":
		prober = arch.Static(cfg.Architecture)
	default:
		target := targetFlag
		if target == "" {
			target = cfg.Target
		}
		prober = arch.NewCached(arch.Host{Target: target})
	}

	return mirror.New(cfg.Baseline.Baseline(), prober, mirror.WithLogger(logger))
}

// applyAutoinstall loads the apt section of the document at path into model.
// An empty path does nothing.
func applyAutoinstall(model *mirror.Model, path string) error {
	if path == "" {
		return nil
	}
	section, err := autoinstall.Load(path)
	if err != nil {
		return err
	}
	if section == nil {
		return nil
	}
	if err := model.LoadOverrides(section); err != nil {
		return fmt.Errorf("applying %s: %w", path, err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errdefs.IsNotFound(err) {
			fmt.Fprintln(os.Stderr, "  hint: check baseline.primary_arches and the autoinstall apt.primary entries")
		}
		return err
	}
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sofmeright/aptmirror/src/output"
)

var (
	renderAutoinstall string
	renderMirror      string
	renderCountry     string
	renderDisable     []string
	renderEnable      []string
	renderFormat      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the apt configuration",
	Long: `Build the mirror model and print the apt configuration it produces.

Changes are applied in order: the autoinstall apt section, --mirror,
--country, --disable, then --enable. --country only rewrites a mirror that
is still the default, so it has no effect together with --mirror.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderAutoinstall, "autoinstall", "", "autoinstall document whose apt section is applied")
	renderCmd.Flags().StringVar(&renderMirror, "mirror", "", "primary mirror URI for the target architecture")
	renderCmd.Flags().StringVar(&renderCountry, "country", "", "country code for the default mirror (e.g. fr)")
	renderCmd.Flags().StringSliceVar(&renderDisable, "disable", nil, "components to disable (comma-separated)")
	renderCmd.Flags().StringSliceVar(&renderEnable, "enable", nil, "components to re-enable (comma-separated)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "yaml", "output format: yaml, json or toml")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(renderFormat)
	if err != nil {
		return err
	}

	model, err := buildModel()
	if err != nil {
		return err
	}

	if err := applyAutoinstall(model, renderAutoinstall); err != nil {
		return err
	}
	if renderMirror != "" {
		if err := model.SetMirror(renderMirror); err != nil {
			return err
		}
	}
	if renderCountry != "" {
		if err := model.SetCountry(renderCountry); err != nil {
			return err
		}
	}
	model.DisableComponents(renderDisable, true)
	model.DisableComponents(renderEnable, false)

	return output.Encode(cmd.OutOrStdout(), format, model.AptConfig())
}

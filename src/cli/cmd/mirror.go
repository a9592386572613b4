package cmd

import (
	"github.com/containerd/errdefs"
	"github.com/spf13/cobra"

	"github.com/sofmeright/aptmirror/src/apt"
	"github.com/sofmeright/aptmirror/src/output"
)

var mirrorAutoinstall string

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Show the resolved primary mirror",
	Long: `Show the primary mirror for the target architecture and whether it is
still the default.

With --autoinstall, the document's apt section is applied first; a security
mirror it configures for the architecture is shown as well.`,
	Args: cobra.NoArgs,
	RunE: runMirror,
}

func init() {
	mirrorCmd.Flags().StringVar(&mirrorAutoinstall, "autoinstall", "", "autoinstall document whose apt section is applied")

	rootCmd.AddCommand(mirrorCmd)
}

func runMirror(cmd *cobra.Command, args []string) error {
	model, err := buildModel()
	if err != nil {
		return err
	}
	if err := applyAutoinstall(model, mirrorAutoinstall); err != nil {
		return err
	}

	uri, err := model.Mirror()
	if err != nil {
		return err
	}
	isDefault, err := model.MirrorIsDefault()
	if err != nil {
		return err
	}

	// The security section is optional.
	security, err := apt.Mirror(model.AptConfig(), apt.SectionSecurity, model.Architecture())
	if err != nil && !errdefs.IsNotFound(err) {
		return err
	}

	output.WriteMirrorSummary(cmd.OutOrStdout(), output.MirrorSummary{
		Architecture:       model.Architecture(),
		Mirror:             uri,
		DefaultMirror:      model.DefaultMirror(),
		IsDefault:          isDefault,
		Security:           security,
		DisabledComponents: model.DisabledComponents(),
	}, output.UseColor())
	return nil
}

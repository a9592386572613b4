package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sofmeright/aptmirror/src/mirror"
)

var countrifyCmd = &cobra.Command{
	Use:   "countrify <uri> <country-code>",
	Short: "Print the country mirror for a URI",
	Long: `Prefix the host of a mirror URI with a country code.

  aptmirror countrify http://archive.ubuntu.com/ubuntu fr
  http://fr.archive.ubuntu.com/ubuntu`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		uri, err := mirror.Countrify(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countrifyCmd)
}

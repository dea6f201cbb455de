package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand wires both a `--version` flag and a `version` subcommand
// into the provided root command. Both print the same build info.
func AttachCobraVersionCommand(root *cobra.Command) {
	root.Version = Full()
	root.SetVersionTemplate("{{.Version}}\n")

	// Subcommand: `version`.
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print the launcher build metadata (version, commit, build timestamp) and the Bedrock Dedicated Server version it installs by default.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	})
}

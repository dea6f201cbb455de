package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ratranqu/endstone/internal/service/packager"
	"github.com/ratranqu/endstone/internal/version"
)

var (
	// documentPath to the bedrock server data document being edited.
	documentPath string
	// downloadURL is where the artifact will be published.
	downloadURL string
	// format overrides the archive format inferred from the URL.
	format string

	// rootCmd represents the base command for publishing a server build.
	rootCmd = &cobra.Command{
		Use:       "endstone-packager [linux|windows] [version] [artifact]",
		Short:     "Record a server build in a bedrock server data document",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"linux", "windows"},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				DocumentPath: documentPath,
				ArtifactPath: args[2],
				URL:          downloadURL,
				Version:      args[1],
				Platform:     args[0],
				Format:       format,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the endstone-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&documentPath, "document", "d", packager.DefaultDocumentFilename, "path to the bedrock server data document")
	rootCmd.Flags().StringVarP(&downloadURL, "url", "u", "", "download URL the artifact is published at")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "archive format: zip, tar.gz or raw (inferred from the URL by default)")

	_ = rootCmd.MarkFlagRequired("url")
}

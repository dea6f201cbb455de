package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratranqu/endstone/internal/config"
	"github.com/ratranqu/endstone/internal/logger"
	"github.com/ratranqu/endstone/internal/service/bootstrap"
	"github.com/ratranqu/endstone/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverFolder overrides the install folder template.
	serverFolder string
	// remote overrides the bedrock server data URL.
	remote string
	// serverVersion overrides the server version.
	serverVersion string
	// timeout overrides the network timeout.
	timeout time.Duration
	// logLevel overrides the configured log level.
	logLevel string
	// assumeYes and noConfirm both skip the install question.
	assumeYes bool
	noConfirm bool

	// exitCode is what the process exits with; the server's code on a normal run.
	exitCode int

	// rootCmd represents the base command for launching the server.
	rootCmd = &cobra.Command{
		Use:   "endstone [flags] [-- server arguments]",
		Short: "Install and start an Endstone Bedrock Dedicated Server",
		Long: "Starts the Bedrock Dedicated Server found in the server folder. When it is missing, " +
			"the build is looked up in the bedrock server data document, downloaded, verified and " +
			"installed first. The exit code is the server's exit code.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithName(context.Background(), "endstone")

			cfg, err := loadConfig(cmd)
			if err != nil {
				exitCode = bootstrap.FailureExitCode
				logger.ErrorKV(ctx, "Unable to load settings", "error", err)

				return err
			}

			options := &bootstrap.Options{
				Config:    cfg,
				AssumeYes: assumeYes || noConfirm,
				Args:      args,
			}

			exitCode, err = bootstrap.Run(ctx, options)
			if err != nil {
				logger.ErrorKV(ctx, "Launcher failed", "error", err, "exit_code", exitCode)
				return err
			}

			return nil
		},
	}
)

// loadConfig reads the settings file and applies flag overrides.
// The file is optional unless --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfg, err := config.LoadOrDefault(configPath, flags.Changed("config"))
	if err != nil {
		return nil, err
	}

	if flags.Changed("server-folder") {
		cfg.ServerFolder = serverFolder
	}

	if flags.Changed("remote") {
		cfg.Remote = remote
	}

	if flags.Changed("version-override") {
		cfg.Version = serverVersion
	}

	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	return cfg, nil
}

// Execute runs the endstone CLI and exits with the server's exit code, or with
// one of the bootstrap exit codes when the server never ran.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil && exitCode == 0 {
		// Flag parsing failed before RunE.
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		exitCode = bootstrap.FailureExitCode
	}

	os.Exit(exitCode)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&serverFolder, "server-folder", "s", config.DefaultServerFolder,
		"server folder template; {system} and {version} are substituted")
	flags.StringVarP(&remote, "remote", "r", config.DefaultRemote, "URL of the bedrock server data document")
	flags.StringVar(&serverVersion, "version-override", version.MinecraftVersion, "Bedrock Dedicated Server version to run")
	flags.DurationVar(&timeout, "timeout", config.DefaultTimeout, "timeout for network requests")
	flags.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "install a missing server without asking")
	flags.BoolVar(&noConfirm, "no-confirm", false, "same as --yes")
}

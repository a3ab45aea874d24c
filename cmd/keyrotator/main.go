package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/cmd/keyrotator/commands"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "keyrotator",
		Short: "Rotate AWS IAM access keys without breaking automation",
		Long: `keyrotator replaces an IAM user's access keys with a fresh pair and
pushes the new credentials to the configured targets (Secrets Manager,
Parameter Store, keyring, webhook, credentials file) before deleting
the old keys. A failed run never leaves the user without a working key.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "keyrotator.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewRotateCommand(cfg),
		commands.NewStatusCommand(cfg),
		commands.NewDoctorCommand(cfg),
	)

	return rootCmd.Execute()
}

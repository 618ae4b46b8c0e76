// Package cli implements the alumnic command line interface: the HTTP
// server plus operator commands that talk to the portal and the directory
// directly.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ic-ufrj/alumnic/internal/config"
	"github.com/ic-ufrj/alumnic/internal/factory"
)

var (
	cfg     config.Config
	app     *factory.App
	output  string
	verbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alumnic",
		Short: "Student account provisioning for the institutional directory",
		Long: `alumnic registers student accounts in the institutional LDAP
directory after verifying their enrollment document against the
university portal.

Configuration comes from ALUMNIC_* environment variables; at minimum
ALUMNIC_LDAP_URL, ALUMNIC_LDAP_BIND_DN and ALUMNIC_LDAP_BIND_PASSWORD
must be set.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.FromEnv()
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			app, err = factory.New(factory.Config{
				Directory: cfg.Directory,
				Portal:    cfg.Portal,
				Logger:    logger,
			})
			return err
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMatriculaCmd())
	rootCmd.AddCommand(newRegistroCmd())
	rootCmd.AddCommand(newNovoAlunoCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

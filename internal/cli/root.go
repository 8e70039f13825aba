// Package cli implements the realmd command line: the API server and its
// operator commands.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/craftrealm/realm-api/internal/config"
	"github.com/craftrealm/realm-api/internal/logging"
)

// runtime is the state shared by every subcommand once the root's
// PersistentPreRunE has run.
type runtime struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:   "realmd",
		Short: "CraftRealm community API",
		Long: `realmd serves the CraftRealm JSON API: accounts, the credits shop
and factions.

Configuration is read from the environment, optionally seeded from a .env
file in the working directory.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.log = logging.New(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newMigrateCmd(rt))
	rootCmd.AddCommand(newCatalogCmd(rt))
	rootCmd.AddCommand(newJournalCmd(rt))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

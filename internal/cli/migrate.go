package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftrealm/realm-api/internal/config"
	"github.com/craftrealm/realm-api/internal/store"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.Storage != config.StoragePostgres {
				return fmt.Errorf("migrate needs STORAGE=%s", config.StoragePostgres)
			}
			db, err := store.OpenPostgres(cmd.Context(), rt.cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.NewPostgresStore(db).Migrate(cmd.Context()); err != nil {
				return err
			}
			rt.log.Info("schema up to date")
			return nil
		},
	}
}

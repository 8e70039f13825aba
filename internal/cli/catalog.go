package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftrealm/realm-api/internal/app"
	"github.com/craftrealm/realm-api/internal/catalog"
	"github.com/craftrealm/realm-api/internal/models"
	"github.com/craftrealm/realm-api/internal/store"
)

func newCatalogCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Shop catalog commands",
	}

	cmd.AddCommand(newCatalogImportCmd(rt))

	return cmd
}

func newCatalogImportCmd(rt *runtime) *cobra.Command {
	var fromMinio bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add items from a JSON or YAML catalog file",
		Long: `Import adds every item whose name is not already in the shop.
Existing items are left untouched.

With --minio, <file> is an object key in MINIO_BUCKET instead of a local path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			var (
				items []models.Item
				err   error
			)
			if fromMinio {
				src, err := store.NewMinioCatalogSource(ctx,
					rt.cfg.MinioEndpoint, rt.cfg.MinioAccessKey, rt.cfg.MinioSecretKey,
					rt.cfg.MinioBucket, rt.cfg.MinioUseSSL)
				if err != nil {
					return err
				}
				data, err := src.Fetch(ctx, name)
				if err != nil {
					return err
				}
				items, err = catalog.Parse(name, data)
				if err != nil {
					return err
				}
			} else {
				items, err = catalog.LoadFile(name)
				if err != nil {
					return err
				}
			}

			a, err := app.Open(ctx, rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res, err := a.Importer().Import(ctx, items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d item(s) added, %d already present\n", res.Inserted, res.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromMinio, "minio", false, "Read the catalog from MinIO")

	return cmd
}

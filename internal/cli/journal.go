package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/craftrealm/realm-api/internal/audit"
	"github.com/craftrealm/realm-api/internal/models"
	"github.com/craftrealm/realm-api/internal/store"
)

func newJournalCmd(rt *runtime) *cobra.Command {
	var (
		userID int64
		limit  int64
		output string
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show a player's recent economy events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.MongoURI == "" {
				return fmt.Errorf("journal needs MONGO_URI")
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			ctx := cmd.Context()
			client, err := store.ConnectMongo(ctx, rt.cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(ctx)

			events, err := store.NewMongoJournal(client.Database(rt.cfg.MongoDB)).ListByUser(ctx, userID, limit)
			if err != nil {
				return err
			}
			return printEvents(cmd, events, output)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id (required)")
	cmd.Flags().Int64Var(&limit, "limit", 20, "Maximum number of events")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func printEvents(cmd *cobra.Command, events []audit.Event, output string) error {
	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tKIND\tAMOUNT\tBALANCE\tREF")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			models.FormatTime(e.At), e.Kind, e.Amount, e.Balance, eventRef(e))
	}
	return tw.Flush()
}

func eventRef(e audit.Event) string {
	switch {
	case e.ItemID != nil:
		return fmt.Sprintf("item %d", *e.ItemID)
	case e.FactionID != nil && e.Members > 0:
		return fmt.Sprintf("faction %d (%d members)", *e.FactionID, e.Members)
	case e.FactionID != nil:
		return fmt.Sprintf("faction %d", *e.FactionID)
	default:
		return "-"
	}
}

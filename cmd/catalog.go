package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/service"
)

func newCountriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported destination countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			items := make([]schemas.VocabularyItem, 0)
			for _, c := range schemas.Countries() {
				items = append(items, c.Item())
			}
			return out.vocabulary(items)
		},
	}
}

func newDeparturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "departures",
		Short: "List supported departure cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			items := make([]schemas.VocabularyItem, 0)
			for _, d := range schemas.Departures() {
				items = append(items, d.Item())
			}
			return out.vocabulary(items)
		},
	}
}

// newHistoryCmd lists stored searches, or the listings of one of them.
func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history [search-id]",
		Short: "Show recent searches stored in the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Database().URL == "" {
				return errors.New("history needs database.url (TOURSCOUT_DATABASE_URL)")
			}

			// History never drives a browser.
			a.cfg.SetServerMock(true)
			components, err := a.components(ctx)
			if err != nil {
				return err
			}
			defer components.Shutdown()
			if components.Store == nil {
				return service.ErrHistoryDisabled
			}

			if len(args) == 1 {
				tours, err := components.Store.ListingsBySearchID(ctx, args[0])
				if err != nil {
					return err
				}
				return out.listings(tours)
			}
			records, err := components.Service.RecentSearches(ctx, limit)
			if err != nil {
				return err
			}
			return out.history(records)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of searches to show")
	return historyCmd
}

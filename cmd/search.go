package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/observability"
)

// searchFlags holds the request flags shared by search and compare.
type searchFlags struct {
	country    string
	departure  string
	dateFrom   string
	dateTo     string
	nightsFrom int
	nightsTo   int
	adults     int
	children   int
	meal       string
	resort     string
	priceMin   int
	priceMax   int
	stars      int
}

func (f *searchFlags) register(fs *pflag.FlagSet, withDeparture bool) {
	def := schemas.DefaultSearchRequest()
	fs.StringVar(&f.country, "country", def.Country.String(), "Destination country, by name or code")
	if withDeparture {
		fs.StringVar(&f.departure, "departure", def.Departure.String(), "Departure city, by name or code")
	}
	fs.StringVar(&f.dateFrom, "date-from", def.DateFrom, "Earliest departure date (dd.mm.yyyy)")
	fs.StringVar(&f.dateTo, "date-to", def.DateTo, "Latest departure date (dd.mm.yyyy)")
	fs.IntVar(&f.nightsFrom, "nights-from", def.NightsFrom, "Minimum nights")
	fs.IntVar(&f.nightsTo, "nights-to", def.NightsTo, "Maximum nights")
	fs.IntVar(&f.adults, "adults", def.Adults, "Number of adults")
	fs.IntVar(&f.children, "children", def.Children, "Number of children")
	fs.StringVar(&f.meal, "meal", def.Meal, "Meal plan, or \"any\"")
	fs.StringVar(&f.resort, "resort", def.Resort, "Resort substring, or \"any\"")
	fs.IntVar(&f.priceMin, "price-min", 0, "Drop tours cheaper than this")
	fs.IntVar(&f.priceMax, "price-max", 0, "Drop tours more expensive than this")
	fs.IntVar(&f.stars, "stars", 0, "Minimum hotel stars")
}

// request resolves the flags. The departure is left at its default when
// the command has no departure flag.
func (f *searchFlags) request() (schemas.SearchRequest, error) {
	req := schemas.DefaultSearchRequest()
	var err error
	if req.Country, err = schemas.ParseCountry(f.country); err != nil {
		return req, err
	}
	if f.departure != "" {
		if req.Departure, err = schemas.ParseDeparture(f.departure); err != nil {
			return req, err
		}
	}
	req.DateFrom, req.DateTo = f.dateFrom, f.dateTo
	req.NightsFrom, req.NightsTo = f.nightsFrom, f.nightsTo
	req.Adults, req.Children = f.adults, f.children
	req.Meal, req.Resort = f.meal, f.resort
	req.PriceMin, req.PriceMax, req.Stars = f.priceMin, f.priceMax, f.stars
	return req, req.Validate()
}

func newSearchCmd(a *app) *cobra.Command {
	var flags searchFlags

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search tours with structured parameters",
		Example: `  tourscout search --country Турция --departure Москва --nights-from 7 --stars 5
  tourscout search --country EGYPT --departure MINSK --meal "All Inclusive" -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}

			components, err := a.components(ctx)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			logger.Info("Starting search",
				zap.Stringer("country", req.Country),
				zap.Stringer("departure", req.Departure))
			tours, err := components.Service.Search(ctx, req)
			if err != nil {
				return err
			}
			return out.listings(tours)
		},
	}
	flags.register(searchCmd.Flags(), true)
	return searchCmd
}

func newQuickCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quick <query>",
		Short: "Search tours from a free-text Russian query",
		Example: `  tourscout quick "Египет из Москвы на 10 ночей 2 человека 5 звезд до 150000 руб"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}

			components, err := a.components(ctx)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			res, err := components.Service.QuickSearch(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if out.format == formatJSON {
				return out.writeJSON(res)
			}
			fmt.Fprintf(out.w, "%s from %s, %d-%d nights, %d adults\n\n",
				res.Request.Country, res.Request.Departure, res.Request.NightsFrom, res.Request.NightsTo, res.Request.Adults)
			return out.listings(res.Tours)
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		flags       searchFlags
		departures  []string
		concurrency int
	)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the same search from several departure cities",
		Example: `  tourscout compare --country Турция --departures Москва,Минск,Алматы -o table`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			deps := make([]schemas.Departure, 0, len(departures))
			for _, name := range departures {
				d, err := schemas.ParseDeparture(name)
				if err != nil {
					return err
				}
				deps = append(deps, d)
			}

			if cmd.Flags().Changed("concurrency") {
				a.cfg.BatchCfg.Concurrency = concurrency
			}
			components, err := a.components(ctx)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			results, err := components.Service.Compare(ctx, req, deps)
			if err != nil {
				return err
			}
			return out.comparison(results)
		},
	}
	flags.register(compareCmd.Flags(), false)
	compareCmd.Flags().StringSliceVar(&departures, "departures", nil, "Departure cities to compare (comma separated)")
	compareCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Browser sessions to run at once (overrides batch.concurrency)")
	_ = compareCmd.MarkFlagRequired("departures")
	return compareCmd
}

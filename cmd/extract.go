package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/extract"
	"github.com/xkilldash9x/tourscout/internal/observability"
	"github.com/xkilldash9x/tourscout/internal/service"
)

// newExtractCmd runs the record extractor over a saved results page, which
// is how extraction rules are checked against pages captured in the field.
func newExtractCmd(a *app) *cobra.Command {
	var country string

	extractCmd := &cobra.Command{
		Use:   "extract <results.html>",
		Short: "Extract tour listings from a saved results page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			out, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			c, err := schemas.ParseCountry(country)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open results page: %w", err)
			}
			defer f.Close()

			extractor := service.NewExtractor(a.cfg.Extraction(), logger)
			cards, err := extract.CardsFromHTML(f, extractor.Options().MaxTextLength)
			if err != nil {
				return err
			}
			logger.Debug("Parsed result cards", zap.String("file", args[0]), zap.Int("cards", len(cards)))

			return out.listings(extractor.Extract(cards, c.String()))
		},
	}
	extractCmd.Flags().StringVar(&country, "country", schemas.DefaultSearchRequest().Country.String(), "Country to stamp on every listing")
	return extractCmd
}

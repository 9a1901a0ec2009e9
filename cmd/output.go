package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// printer renders a result as JSON or as an aligned table.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(cmd *cobra.Command) (*printer, error) {
	format, _ := cmd.Flags().GetString("output")
	format = strings.ToLower(format)
	if format != formatJSON && format != formatTable {
		return nil, fmt.Errorf("unsupported output format %q (want json or table)", format)
	}
	return &printer{w: cmd.OutOrStdout(), format: format}, nil
}

func (p *printer) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// table writes header and rows through a tabwriter.
func (p *printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (p *printer) listings(tours []schemas.TourListing) error {
	if p.format == formatJSON {
		return p.writeJSON(map[string]interface{}{"count": len(tours), "tours": tours})
	}
	rows := make([][]string, len(tours))
	for i, t := range tours {
		rows[i] = []string{t.Hotel, t.Price, t.Stars, t.Resort, t.Rating, t.Meal, t.Nights, t.DateFrom + " - " + t.DateTo, t.Operator}
	}
	if err := p.table([]string{"HOTEL", "PRICE", "STARS", "RESORT", "RATING", "MEAL", "NIGHTS", "DATES", "OPERATOR"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "\n%d tours\n", len(tours))
	return err
}

func (p *printer) vocabulary(items []schemas.VocabularyItem) error {
	if p.format == formatJSON {
		return p.writeJSON(items)
	}
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.Name, it.Code, it.Group}
	}
	return p.table([]string{"NAME", "CODE", "GROUP"}, rows)
}

func (p *printer) comparison(results []schemas.ComparisonResult) error {
	if p.format == formatJSON {
		return p.writeJSON(results)
	}
	rows := make([][]string, len(results))
	for i, r := range results {
		minPrice := "-"
		if r.MinPrice > 0 {
			minPrice = fmt.Sprint(r.MinPrice)
		}
		rows[i] = []string{r.Departure.String(), fmt.Sprint(r.Count), minPrice}
	}
	return p.table([]string{"DEPARTURE", "TOURS", "MIN PRICE"}, rows)
}

func (p *printer) history(records []schemas.SearchRecord) error {
	if p.format == formatJSON {
		return p.writeJSON(records)
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Request.Country.String(),
			r.Request.Departure.String(),
			fmt.Sprint(r.ListingCount),
		}
	}
	return p.table([]string{"ID", "CREATED", "COUNTRY", "DEPARTURE", "TOURS"}, rows)
}

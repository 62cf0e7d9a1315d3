package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

// NewStockCommand creates the stock command.
func NewStockCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Print remaining stock and units sold per product",
		Long: `Print the stock report: every product with its live stock and the units
sold across the ledger. Out-of-stock products come first, then low stock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), rootOpts, connect, func(b *Backend) error {
				rows, err := b.Reports.StockReport(cmd.Context(), query)
				if err != nil {
					return err
				}
				return printStock(cmd, rootOpts.Format, rows)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "only products whose name contains this text")
	return cmd
}

func printStock(cmd *cobra.Command, format string, rows []models.StockStatus) error {
	out := cmd.OutOrStdout()
	switch format {
	case FormatJSON:
		return writeJSON(out, rows)
	case FormatCSV:
		return writeCSV(out, rows)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.Barcode, r.Name, strconv.Itoa(r.Stock), strconv.Itoa(r.Sold), r.Status,
		})
	}
	return table(out, []string{"BARCODE", "NAME", "STOCK", "SOLD", "STATUS"}, cells)
}

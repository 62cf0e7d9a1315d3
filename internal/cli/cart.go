package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/pkg/currency"
)

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect or repair the shared cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the lines currently reserved in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), rootOpts, connect, func(b *Backend) error {
				lines, err := b.Cart.Cart(cmd.Context())
				if err != nil {
					return err
				}
				return printCart(cmd, rootOpts.Format, lines)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart and return every reserved unit to stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), rootOpts, connect, func(b *Backend) error {
				if err := b.Cart.ClearAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
				return nil
			})
		},
	})

	return cmd
}

func printCart(cmd *cobra.Command, format string, lines []models.CartLine) error {
	out := cmd.OutOrStdout()
	switch format {
	case FormatJSON:
		return writeJSON(out, lines)
	case FormatCSV:
		return writeCSV(out, lines)
	}

	cells := make([][]string, 0, len(lines))
	for _, l := range lines {
		cells = append(cells, []string{l.ProductID, l.Name, strconv.Itoa(l.Quantity), currency.Format(l.Total)})
	}
	if err := table(out, []string{"ID", "NAME", "QTY", "TOTAL"}, cells); err != nil {
		return err
	}
	fmt.Fprintf(out, "Subtotal: %s\n", currency.Format(models.Subtotal(lines)))
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/kasir/internal/service/reporting"
	"github.com/mamadbah2/kasir/pkg/currency"
)

type dailyRow struct {
	Date  string `csv:"date"`
	Total string `csv:"total"`
}

// NewSalesCommand creates the sales command.
func NewSalesCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	var period reporting.Period

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Print sales analytics for a month and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if period.Month < 0 || period.Month > 12 {
				return NewExitError(ExitCommandError, "--month must be between 1 and 12, or 0 for all")
			}
			return withBackend(cmd.Context(), rootOpts, connect, func(b *Backend) error {
				report, err := b.Reports.SalesReport(cmd.Context(), period)
				if err != nil {
					return err
				}
				return printSales(cmd, rootOpts.Format, report)
			})
		},
	}

	cmd.Flags().IntVar(&period.Month, "month", 0, "calendar month, 0 for all")
	cmd.Flags().IntVar(&period.Year, "year", 0, "calendar year, 0 for all")
	return cmd
}

func printSales(cmd *cobra.Command, format string, report reporting.SalesReport) error {
	out := cmd.OutOrStdout()
	switch format {
	case FormatJSON:
		return writeJSON(out, report)
	case FormatCSV:
		rows := make([]dailyRow, 0, len(report.Daily))
		for _, d := range report.Daily {
			rows = append(rows, dailyRow{Date: d.Date, Total: d.Total.String()})
		}
		return writeCSV(out, rows)
	}

	s := report.Summary
	fmt.Fprintf(out, "Transactions: %d\n", s.Transactions)
	fmt.Fprintf(out, "Revenue: %s\n", currency.Format(s.Revenue))
	fmt.Fprintf(out, "Items sold: %d\n", s.ItemsSold)
	fmt.Fprintf(out, "Average ticket: %s\n", currency.Format(s.AverageTicket))
	fmt.Fprintf(out, "Median ticket: %s\n\n", currency.Format(s.MedianTicket))

	daily := make([][]string, 0, len(report.Daily))
	for _, d := range report.Daily {
		daily = append(daily, []string{d.Date, currency.Format(d.Total)})
	}
	if err := table(out, []string{"DATE", "TOTAL"}, daily); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nTop days:")
	for _, d := range report.TopDays {
		fmt.Fprintf(out, "  %s  %s\n", d.Date, currency.Format(d.Total))
	}
	fmt.Fprintln(out, "Peak hours:")
	for _, h := range report.PeakHours {
		fmt.Fprintf(out, "  %02d:00  %s transactions\n", h.Hour, strconv.Itoa(h.Count))
	}
	return nil
}

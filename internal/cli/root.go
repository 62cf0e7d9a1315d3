package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatCSV}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string
	EnvFile string
}

// NewRootCommand creates the posctl root command. connect opens the backend
// lazily, so --help works without a reachable store.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "posctl",
		Short: "Operate the shared POS terminal",
		Long:  "Reports and recovery tools for the shared point-of-sale cart, catalog and sales ledger.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stdout while running")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|csv)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load configuration from this .env file")

	cmd.AddCommand(NewStockCommand(opts, connect))
	cmd.AddCommand(NewSalesCommand(opts, connect))
	cmd.AddCommand(NewCartCommand(opts, connect))
	cmd.AddCommand(NewRuleCommand(opts, connect))

	return cmd
}

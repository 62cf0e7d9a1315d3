package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRuleCommand creates the rule command group.
func NewRuleCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage the passwords guarding stock and analytics",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List rule keys and types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), rootOpts, connect, func(b *Backend) error {
				rules, err := b.Rules.Rules(cmd.Context())
				if err != nil {
					return err
				}
				cells := make([][]string, 0, len(rules))
				for _, r := range rules {
					cells = append(cells, []string{r.Key, r.Type})
				}
				return table(cmd.OutOrStdout(), []string{"KEY", "TYPE"}, cells)
			})
		},
	})

	var ruleType, password string
	set := &cobra.Command{
		Use:   "set <key>",
		Short: "Create or replace a rule, storing a bcrypt hash of its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), rootOpts, connect, func(b *Backend) error {
				if err := b.Rules.SetRule(cmd.Context(), args[0], ruleType, password); err != nil {
					return WrapExitError(ExitCommandError, "cannot set rule", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rule %s saved\n", args[0])
				return nil
			})
		},
	}
	set.Flags().StringVar(&ruleType, "type", "", "label shown next to the rule")
	set.Flags().StringVar(&password, "password", "", "the shared password")
	_ = set.MarkFlagRequired("password")
	cmd.AddCommand(set)

	return cmd
}

package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"despesas/internal/core"
)

func newFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "format <amount>",
		Short:   "Print typed amount text the way the amount field shows it",
		Example: "  despesas format 15000\n  despesas format 'R$ 1,505'\n  despesas format -150",
		// Amounts such as "-150" would otherwise be read as flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && slices.Contains([]string{"-h", "--help"}, args[0]) {
				return cmd.Help()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), core.FormatAmountInput(strings.Join(args, "")))
			return err
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"claimguard/claim"
)

var schemaTable bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the claim input schema",
	Long:  `Schema prints the JSON Schema accepted by POST /api/predict, or with --table the full column list in model order.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !schemaTable {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(claim.JSONSchema())
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tCOLUMN\tKIND\tDOMAIN\tDEFAULT")
		for i, f := range claim.Schema() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n", i+1, f.Name, f.Kind, domain(f), f.Default)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaTable, "table", false, "print a column table instead of JSON Schema")
}

func domain(f claim.Field) string {
	switch f.Kind {
	case claim.KindCategory:
		return strings.Join(f.Options, " | ")
	case claim.KindInteger:
		if f.Step > 1 {
			return fmt.Sprintf("%d..%d step %d", f.Min, f.Max, f.Step)
		}
		return fmt.Sprintf("%d..%d", f.Min, f.Max)
	case claim.KindChoice:
		parts := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			parts[i] = fmt.Sprint(c)
		}
		return strings.Join(parts, " | ")
	}
	return "fixed"
}

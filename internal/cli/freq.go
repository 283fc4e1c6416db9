package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkleiva/sosivask/internal/sosi"
)

var (
	freqCategory string
	freqField    string
	freqTop      int
)

var freqCmd = &cobra.Command{
	Use:   "freq <file>",
	Short: "Count the values of one field across a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, ok := sosi.ParseCategory(freqCategory)
		if !ok {
			return fmt.Errorf("unknown category %q", freqCategory)
		}
		field := strings.ToUpper(strings.TrimSpace(freqField))
		if field == "" {
			return fmt.Errorf("--field is required")
		}

		text, _, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		values := sosi.FieldFrequency(text, cat, field)
		if freqTop > 0 && len(values) > freqTop {
			values = values[:freqTop]
		}

		if jsonOutput {
			return printJSON(struct {
				Category sosi.Category     `json:"category"`
				Field    string            `json:"field"`
				Values   []sosi.ValueCount `json:"values"`
			}{cat, field, values})
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "VALUE\tCOUNT\n")
		for _, vc := range values {
			fmt.Fprintf(tw, "%s\t%d\n", vc.Value, vc.Count)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(freqCmd)
	freqCmd.Flags().StringVar(&freqCategory, "category", "points", "feature category: points | lines")
	freqCmd.Flags().StringVar(&freqField, "field", "", "attribute key to count, e.g. OBJTYPE or P_TEMA")
	freqCmd.Flags().IntVar(&freqTop, "top", 0, "limit output to the N most frequent values (0 = all)")
}

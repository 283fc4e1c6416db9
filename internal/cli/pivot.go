package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkleiva/sosivask/internal/sosi"
)

var (
	pivCategory   string
	pivRows       string
	pivCols       string
	pivTopColumns int
	pivRowCap     int
	pivBins       int
	pivMode       string
	pivSample     int
	pivSeed       int64
)

var pivotCmd = &cobra.Command{
	Use:   "pivot <file>",
	Short: "Cross-tabulate two fields across a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, ok := sosi.ParseCategory(pivCategory)
		if !ok {
			return fmt.Errorf("unknown category %q", pivCategory)
		}
		rows := strings.ToUpper(strings.TrimSpace(pivRows))
		cols := strings.ToUpper(strings.TrimSpace(pivCols))
		if rows == "" || cols == "" {
			return fmt.Errorf("--rows and --cols are required")
		}

		opts, err := pivotOptions(cmd)
		if err != nil {
			return err
		}

		text, _, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		result := sosi.Pivot2D(text, cat, rows, cols, opts)

		if jsonOutput {
			return printJSON(result)
		}
		renderPivot(os.Stdout, result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pivotCmd)
	pivotCmd.Flags().StringVar(&pivCategory, "category", "points", "feature category: points | lines")
	pivotCmd.Flags().StringVar(&pivRows, "rows", "", "attribute key for the row axis")
	pivotCmd.Flags().StringVar(&pivCols, "cols", "", "attribute key for the column axis")
	pivotCmd.Flags().IntVar(&pivTopColumns, "top-columns", 0, "keep the N most frequent columns, fold the rest into Other")
	pivotCmd.Flags().IntVar(&pivRowCap, "row-cap", 0, "maximum distinct row values")
	pivotCmd.Flags().IntVar(&pivBins, "bins", 0, "bin count for numeric columns")
	pivotCmd.Flags().StringVar(&pivMode, "mode", "", "numeric binning mode: equal-width | quantile")
	pivotCmd.Flags().IntVar(&pivSample, "sample", 0, "sample size for quantile binning")
	pivotCmd.Flags().Int64Var(&pivSeed, "seed", 0, "sampling seed for reproducible quantile bins")
}

// pivotOptions merges the config-file defaults with any flags that
// were set explicitly.
func pivotOptions(cmd *cobra.Command) (sosi.PivotOptions, error) {
	opts := sosi.PivotOptions{
		TopColumns:         defaults.TopColumns,
		RowCap:             defaults.RowCap,
		NumericBins:        defaults.Bins,
		QuantileSampleSize: defaults.Sample,
		Seed:               pivSeed,
	}

	f := cmd.Flags()
	if f.Changed("top-columns") {
		opts.TopColumns = pivTopColumns
	}
	if f.Changed("row-cap") {
		opts.RowCap = pivRowCap
	}
	if f.Changed("bins") {
		opts.NumericBins = pivBins
	}
	if f.Changed("sample") {
		opts.QuantileSampleSize = pivSample
	}

	mode := defaults.Mode
	if f.Changed("mode") {
		mode = pivMode
	}
	if err := opts.BinningMode.UnmarshalText([]byte(mode)); err != nil {
		return sosi.PivotOptions{}, err
	}
	return opts, nil
}

func renderPivot(w io.Writer, result *sosi.PivotResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "\t")
	for _, col := range result.Cols {
		fmt.Fprintf(tw, "%s\t", col)
	}
	fmt.Fprint(tw, "Total\n")

	for _, row := range result.Rows {
		fmt.Fprintf(tw, "%s\t", row)
		for _, col := range result.Cols {
			fmt.Fprintf(tw, "%d\t", result.Cells[row][col])
		}
		fmt.Fprintf(tw, "%d\n", result.RowTotals[row])
	}

	fmt.Fprint(tw, "Total\t")
	for _, col := range result.Cols {
		fmt.Fprintf(tw, "%d\t", result.ColTotals[col])
	}
	fmt.Fprintf(tw, "%d\n", result.GrandTotal)
	tw.Flush()

	if result.Exploded {
		fmt.Fprintln(w, "\nNote: cells count value pairs, not features; multi-valued fields were expanded.")
	}
}

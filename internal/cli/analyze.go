package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkleiva/sosivask/internal/sosi"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize object types, fields and themes per category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, decision, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		analysis := sosi.Analyze(text)

		if jsonOutput {
			return printJSON(struct {
				Encoding sosi.Decision        `json:"encoding"`
				Analysis *sosi.AnalysisResult `json:"analysis"`
			}{decision, analysis})
		}

		renderAnalysis(os.Stdout, decision, analysis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func renderAnalysis(w io.Writer, decision sosi.Decision, analysis *sosi.AnalysisResult) {
	fmt.Fprintf(w, "Encoding: %s\n", describeEncoding(decision))

	renderCategoryStats(w, "Points", analysis.Points)
	renderCategoryStats(w, "Lines", analysis.Lines)
	renderCategoryStats(w, "Unknown", analysis.Unknown)

	if len(analysis.Sections) > 0 {
		fmt.Fprintf(w, "\nSections:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, name := range sortedKeys(analysis.Sections) {
			fmt.Fprintf(tw, "  %s\t%d\n", name, analysis.Sections[name])
		}
		tw.Flush()
	}
}

func renderCategoryStats(w io.Writer, label string, stats sosi.CategoryStats) {
	if stats.Features == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s: %d features\n", label, stats.Features)

	renderCountMap(w, "Object types", stats.ObjTypes)
	renderCountMap(w, "Fields", stats.Fields)
	renderCountMap(w, "Themes", stats.Themes)
}

func renderCountMap(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", label)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, key := range sortedKeys(counts) {
		fmt.Fprintf(tw, "    %s\t%d\n", key, counts[key])
	}
	tw.Flush()
}

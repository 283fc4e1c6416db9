package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkleiva/sosivask/internal/sosi"
)

var (
	cleanSelection string
	cleanMode      string
	cleanOutput    string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Rewrite a file keeping only the selected types and fields",
	Long: `Clean rewrites a SOSI file through a selection: object types and
attribute fields not named in the selection are removed or cleared,
while header, geometry and unrecognized constructs pass through
unchanged. The output keeps the input's character set.

Without --selection everything is kept, which makes clean a
charset-preserving reformat check.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := sosi.ParseFieldMode(cleanMode)
		if !ok {
			return fmt.Errorf("unknown field mode %q", cleanMode)
		}

		var sel sosi.Selection
		if cleanSelection != "" {
			data, err := os.ReadFile(cleanSelection)
			if err != nil {
				return err
			}
			sel, err = sosi.ParseSelection(data)
			if err != nil {
				return err
			}
		}

		text, decision, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		cleaned := sosi.Clean(text, sel, mode)
		out, err := sosi.Encode(cleaned, decision.Encoding)
		if err != nil {
			return fmt.Errorf("encode %s: %w", decision.Encoding, err)
		}

		if cleanOutput != "" {
			if err := os.WriteFile(cleanOutput, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes, %s)\n", cleanOutput, len(out), decision.Encoding)
			return nil
		}

		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanSelection, "selection", "", "path to a selection JSON file")
	cleanCmd.Flags().StringVar(&cleanMode, "mode", "", "unselected field handling: remove-fields | clear-values")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the result to a file instead of stdout")
}

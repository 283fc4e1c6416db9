// Package cli implements the sosivask command tree for batch work on
// local files. It drives the analysis and cleaning primitives directly
// instead of going through the HTTP service.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkleiva/sosivask/internal/sosi"
)

var (
	cfgFile       string
	forceEncoding string
	jsonOutput    bool

	// defaults holds the pivot knobs from the optional config file,
	// applied wherever the matching flag was not set.
	defaults cliDefaults
)

type cliDefaults struct {
	TopColumns int    `mapstructure:"top_columns"`
	RowCap     int    `mapstructure:"row_cap"`
	Bins       int    `mapstructure:"bins"`
	Mode       string `mapstructure:"mode"`
	Sample     int    `mapstructure:"sample"`
}

var rootCmd = &cobra.Command{
	Use:   "sosivask",
	Short: "Inspect and clean SOSI files",
	Long: `sosivask inspects and cleans SOSI files from utility surveys.

It detects the character set, summarizes object types, fields and
themes per geometry category, computes frequency and crosstab views,
and rewrites files keeping only a chosen selection. Use "-" as the
file argument to read from stdin.`,
}

// Execute is the entry point called by main.main().
func Execute() {
	cobra.OnInitialize(loadDefaults)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sosivask.yaml)")
	rootCmd.PersistentFlags().StringVar(&forceEncoding, "encoding", "", "force a character set (ISO8859-1, WINDOWS-1252, UTF-8) instead of detecting")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of text")
}

// loadDefaults reads the optional config file for pivot flag defaults.
// Precedence: flags > env > config file > built-in defaults.
func loadDefaults() {
	v := viper.New()
	v.SetEnvPrefix("SOSIVASK")
	v.AutomaticEnv()

	v.SetDefault("top_columns", sosi.DefaultTopColumns)
	v.SetDefault("row_cap", sosi.DefaultRowCap)
	v.SetDefault("bins", sosi.DefaultNumericBins)
	v.SetDefault("mode", "equal-width")
	v.SetDefault("sample", sosi.DefaultQuantileSampleSize)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".sosivask")
			v.SetConfigType("yaml")
		}
	}
	// The config file is optional.
	_ = v.ReadInConfig()

	if err := v.Unmarshal(&defaults); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid config: %v\n", err)
	}
}

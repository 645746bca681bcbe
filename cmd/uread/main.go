// uread - read files of unknown or mixed encoding as clean Unicode text.
// Detects encodings, repairs mixed UTF-8/Windows-1252 files, and
// normalizes smart quotes for downstream line- and CSV-oriented tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unisafe/uread/pkg/config"
	"github.com/unisafe/uread/pkg/detect"
	"github.com/unisafe/uread/pkg/normalize"
	"github.com/unisafe/uread/pkg/uread"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	cfgPath      string
	sampleSize   int
	noNormalize  bool
	quoteTarget  string
	dropNonASCII bool
	lenient      bool
	noDetwingle  bool
	outDir       string
	watchExts    []string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "uread",
	Short: "uread - read files of unknown encoding as Unicode",
	Long: `uread detects a file's text encoding (including mixed legacy encodings),
decodes it to Unicode, and optionally normalizes smart quotes so the
output drops cleanly into CSV parsers and other line-oriented tools.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	rootCmd.PersistentFlags().IntVar(&sampleSize, "sample-size", 0, "bytes sampled for detection (0 = config default)")

	for _, c := range []*cobra.Command{catCmd, convertCmd, watchCmd} {
		c.Flags().BoolVar(&noNormalize, "no-normalize", false, "disable smart-quote normalization")
		c.Flags().StringVar(&quoteTarget, "quote-target", "", "quote replacement target: utf8 or ascii")
		c.Flags().BoolVar(&dropNonASCII, "drop-non-ascii", false, "drop all non-ASCII characters after normalization")
		c.Flags().BoolVar(&lenient, "lenient", false, "replace undecodable bytes instead of failing")
		c.Flags().BoolVar(&noDetwingle, "no-detwingle", false, "disable mixed UTF-8/Windows-1252 repair")
	}
	convertCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory (default: alongside input)")
	watchCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory (default: alongside input)")
	watchCmd.Flags().StringSliceVar(&watchExts, "ext", []string{".txt", ".csv"}, "file extensions to watch")

	rootCmd.AddCommand(detectCmd, catCmd, convertCmd, watchCmd)
}

// loadConfig builds the effective CLI configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if sampleSize > 0 {
		cfg.Detect.SampleSize = sampleSize
	}
	return cfg, nil
}

// detectorConfig maps CLI configuration onto the detector.
func detectorConfig(cfg *config.Config) detect.Config {
	dc := detect.DefaultConfig()
	if cfg.Detect.SampleSize > 0 {
		dc.SampleSize = cfg.Detect.SampleSize
	}
	if len(cfg.Detect.Candidates) > 0 {
		dc.Candidates = cfg.Detect.Candidates
	}
	return dc
}

// openOptions maps CLI configuration and flags onto library options.
func openOptions(cfg *config.Config) []uread.Option {
	target := cfg.Normalize.Target
	if quoteTarget != "" {
		target = quoteTarget
	}

	opts := []uread.Option{
		uread.WithDetectorConfig(detectorConfig(cfg)),
		uread.WithNormalizeQuotes(cfg.Normalize.Quotes && !noNormalize),
		uread.WithQuoteTarget(normalize.ParseTarget(target)),
		uread.WithEscapeFiles(cfg.Normalize.EscapeFiles...),
		uread.WithEscapeChar(cfg.Normalize.EscapeByte()),
		uread.WithDropNonASCII(cfg.Normalize.DropNonASCII || dropNonASCII),
		uread.WithDetwingle(!noDetwingle),
		uread.WithLenient(lenient),
	}
	return opts
}

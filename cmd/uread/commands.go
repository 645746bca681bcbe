package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unisafe/uread/pkg/tui"
	"github.com/unisafe/uread/pkg/uread"
	"github.com/unisafe/uread/pkg/util"
	"github.com/unisafe/uread/pkg/watch"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Report the detected encoding of each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dc := detectorConfig(cfg)

		var failed bool
		for _, path := range args {
			guess, err := uread.DetectFile(path, dc)
			if err != nil {
				tui.PrintError(path, err)
				failed = true
				continue
			}
			tui.PrintGuess(path, guess)
		}
		if failed {
			return fmt.Errorf("detection failed for some files")
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print a file decoded (and normalized) to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		h, err := uread.Open(args[0], openOptions(cfg)...)
		if err != nil {
			return err
		}
		defer h.Close()

		text, err := h.ReadAll()
		if err != nil {
			return err
		}
		_, err = os.Stdout.WriteString(text)
		return err
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>...",
	Short: "Re-encode files as clean UTF-8",
	Long: `Convert decodes each input through the detection pipeline and writes
the result as UTF-8. Output goes to --out-dir, or next to the input with
a .utf8 suffix. Files convert in parallel; output is written atomically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := openOptions(cfg)

		bar := tui.ShowProgress(int64(len(args)), "converting")
		g, _ := errgroup.WithContext(cmd.Context())
		g.SetLimit(runtime.NumCPU())
		for _, path := range args {
			g.Go(func() error {
				defer bar.Add(1)
				if err := convertFile(path, outDir, opts); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		bar.Finish()
		tui.PrintSuccess(fmt.Sprintf("converted %d file(s)", len(args)))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and convert files as they appear",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := openOptions(cfg)
		dest := outDir
		if dest == "" {
			dest = cfg.Watch.OutDir
		}

		w, err := watch.New(args[0], watchExts, cfg.Watch.Debounce)
		if err != nil {
			return err
		}
		defer w.Close()

		w.OnFile = func(path string) error {
			if err := convertFile(path, dest, opts); err != nil {
				return err
			}
			tui.PrintSuccess(path)
			return nil
		}
		w.OnError = tui.PrintError

		tui.PrintInfo(fmt.Sprintf("watching %s (%s), ctrl-c to stop", args[0], strings.Join(watchExts, ", ")))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

// convertFile runs one file through the pipeline and writes UTF-8 output
// atomically: a uuid-suffixed temp file in the destination directory,
// renamed into place once fully written.
func convertFile(path, dest string, opts []uread.Option) error {
	h, err := uread.Open(path, opts...)
	if err != nil {
		return err
	}
	defer h.Close()

	text, err := h.ReadAll()
	if err != nil {
		return err
	}

	out := outputPath(path, dest)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	tmp := out + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// outputPath decides where a converted file lands. Compression suffixes
// are dropped (the output is plain UTF-8); without an output directory
// the result sits next to the input with a .utf8 suffix so the source is
// never clobbered.
func outputPath(path, dest string) string {
	path = util.StripCompression(path)
	if dest == "" {
		return path + ".utf8"
	}
	return filepath.Join(dest, filepath.Base(path))
}

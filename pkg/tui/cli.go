// Package tui renders the uread CLI's output: styled status lines,
// detection reports, and batch progress.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/unisafe/uread/pkg/detect"
)

// Colors
var (
	accent = lipgloss.Color("#5F87FF")
	muted  = lipgloss.Color("#666666")
	good   = lipgloss.Color("#00CC66")
	bad    = lipgloss.Color("#FF5555")
	white  = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(good).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(bad).Bold(true)
)

// PrintGuess renders one detection result line.
func PrintGuess(path string, g detect.Guess) {
	fmt.Printf("%s  %s %s\n",
		titleStyle.Render(path),
		accentStyle.Render(g.Name),
		mutedStyle.Render(fmt.Sprintf("(confidence %s, %d bytes sampled)", g.Confidence, g.BytesSampled)))
}

// PrintSuccess renders a completed-action line.
func PrintSuccess(msg string) {
	fmt.Printf("%s %s\n", successStyle.Render("✓"), msg)
}

// PrintError renders a failure line.
func PrintError(path string, err error) {
	if path != "" {
		fmt.Printf("%s %s: %v\n", errorStyle.Render("✗"), titleStyle.Render(path), err)
		return
	}
	fmt.Printf("%s %v\n", errorStyle.Render("✗"), err)
}

// PrintInfo renders a muted informational line.
func PrintInfo(msg string) {
	fmt.Println(mutedStyle.Render(msg))
}

// ShowProgress creates the batch progress bar.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

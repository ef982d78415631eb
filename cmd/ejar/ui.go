package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ui prints status lines and an optional progress bar for batch runs.
type ui struct {
	out     io.Writer
	noColor bool
	bar     *progressbar.ProgressBar
}

func newUI(out io.Writer, disableColor bool) *ui {
	return &ui{out: out, noColor: disableColor || color.NoColor}
}

// isTerminal reports whether stderr is attached to a terminal.
func isTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (u *ui) success(format string, args ...interface{}) {
	u.line(color.FgGreen, "✓", format, args...)
}

func (u *ui) failure(format string, args ...interface{}) {
	u.line(color.FgRed, "✗", format, args...)
}

func (u *ui) warning(format string, args ...interface{}) {
	u.line(color.FgYellow, "⚠", format, args...)
}

func (u *ui) info(format string, args ...interface{}) {
	u.line(color.FgCyan, "ℹ", format, args...)
}

func (u *ui) line(attr color.Attribute, mark, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if u.noColor {
		fmt.Fprintf(u.out, "%s %s\n", mark, msg)
		return
	}
	color.New(attr).Fprintf(u.out, "%s %s\n", mark, msg)
}

// startProgress shows a bar on stderr when it is a terminal.
func (u *ui) startProgress(total int, description string) {
	if total < 2 || !isTerminal() {
		return
	}
	u.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(!u.noColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (u *ui) step() {
	if u.bar != nil {
		_ = u.bar.Add(1)
	}
}

func (u *ui) finishProgress() {
	if u.bar != nil {
		_ = u.bar.Finish()
		u.bar = nil
	}
}

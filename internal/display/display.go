// Package display renders the continuous progress stream of a build run:
// full-width log lines, the one-line status bar, and the optional terminal
// title mirror. All writes are serialized through one Display so worker
// output chunks and coordinator banners never interleave mid-line.
package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

const defaultWidth = 80

// Display is the single sink for all progress output of a run.
type Display struct {
	mu     sync.Mutex
	out    *termenv.Output
	width  int
	status bool // a status line is currently pending on screen
}

// New creates a display writing to w. forceColor selects an ANSI profile
// even when w is not a supporting terminal. Width is taken from COLUMNS
// when set, falling back to 80 columns.
func New(w io.Writer, forceColor bool) *Display {
	profile := termenv.EnvColorProfile()
	if forceColor {
		profile = termenv.ANSI256
	}
	return &Display{
		out:   termenv.NewOutput(w, termenv.WithProfile(profile)),
		width: terminalWidth(),
	}
}

// WideLog writes one full-width log line, overwriting any pending status
// line.
func (d *Display) WideLog(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearStatusLocked()
	fmt.Fprintln(d.out, msg)
}

// WideLogf is WideLog with formatting.
func (d *Display) WideLogf(format string, args ...any) {
	d.WideLog(fmt.Sprintf(format, args...))
}

// Stream writes a raw command output chunk prefixed with its package name.
// Chunks keep their own line structure; only the first write after a status
// line clears it.
func (d *Display) Stream(pkg, chunk string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearStatusLocked()
	for _, line := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
		fmt.Fprintf(d.out, "[%s]: %s\n", pkg, line)
	}
}

// Status rewrites the one-line status bar in place and mirrors it to the
// terminal title. An empty line clears the bar.
func (d *Display) Status(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if line == "" {
		d.clearStatusLocked()
		return
	}
	truncated := runewidth.Truncate(line, d.width-1, "")
	pad := d.width - 1 - runewidth.StringWidth(truncated)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(d.out, "\r%s%s", truncated, strings.Repeat(" ", pad))
	d.out.SetWindowTitle(line)
	d.status = true
}

// Success styles msg as a success banner.
func (d *Display) Success(msg string) string {
	return d.out.String(msg).Foreground(d.out.Color("2")).String()
}

// Failure styles msg as a failure banner.
func (d *Display) Failure(msg string) string {
	return d.out.String(msg).Foreground(d.out.Color("1")).String()
}

// clearStatusLocked erases a pending status line so the next log line
// starts at column zero of a clean row.
func (d *Display) clearStatusLocked() {
	if !d.status {
		return
	}
	fmt.Fprintf(d.out, "\r%s\r", strings.Repeat(" ", d.width-1))
	d.status = false
}

func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 8 {
			return n
		}
	}
	return defaultWidth
}

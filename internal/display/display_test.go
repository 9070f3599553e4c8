package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDisplay(t *testing.T) (*Display, *bytes.Buffer) {
	t.Helper()
	t.Setenv("COLUMNS", "40")
	var buf bytes.Buffer
	return New(&buf, false), &buf
}

func TestWideLog(t *testing.T) {
	d, buf := newTestDisplay(t)
	d.WideLog("discovery complete")
	assert.Contains(t, buf.String(), "discovery complete\n")
}

func TestStream_PrefixesEveryLine(t *testing.T) {
	d, buf := newTestDisplay(t)
	d.Stream("widget", "compiling foo.c\ncompiling bar.c\n")

	out := buf.String()
	assert.Contains(t, out, "[widget]: compiling foo.c\n")
	assert.Contains(t, out, "[widget]: compiling bar.c\n")
}

func TestStatus_TruncatesToTerminalWidth(t *testing.T) {
	d, buf := newTestDisplay(t)
	long := strings.Repeat("x", 100)
	d.Status(long)

	// The full line is mirrored into the terminal title escape; only the
	// part before the first escape byte lands on the status row.
	visible := buf.String()
	if i := strings.IndexByte(visible, '\x1b'); i >= 0 {
		visible = visible[:i]
	}
	assert.Contains(t, visible, "\r"+strings.Repeat("x", 39))
	assert.NotContains(t, visible, strings.Repeat("x", 40), "status must not exceed width-1 columns")
}

func TestStatus_PadsShortLines(t *testing.T) {
	d, buf := newTestDisplay(t)
	d.Status("[1/2 widget - 0.3]")

	// The rewrite pads to a fixed width so a shorter refresh fully covers
	// the previous one.
	assert.Contains(t, buf.String(), "\r[1/2 widget - 0.3]"+strings.Repeat(" ", 39-len("[1/2 widget - 0.3]")))
}

func TestWideLog_OverwritesPendingStatus(t *testing.T) {
	d, buf := newTestDisplay(t)
	d.Status("building widget")
	d.WideLog("done")

	out := buf.String()
	statusAt := strings.Index(out, "building widget")
	blankAt := strings.LastIndex(out, "\r"+strings.Repeat(" ", 39)+"\r")
	doneAt := strings.Index(out, "done\n")
	require.GreaterOrEqual(t, statusAt, 0)
	require.GreaterOrEqual(t, blankAt, 0, "pending status must be blanked out")
	assert.Greater(t, doneAt, blankAt, "log line must follow the blanking rewrite")
}

func TestStatus_EmptyLineClears(t *testing.T) {
	d, buf := newTestDisplay(t)
	d.Status("building widget")
	d.Status("")

	assert.True(t, strings.HasSuffix(buf.String(), "\r"+strings.Repeat(" ", 39)+"\r"),
		"clearing must blank the row and return to column zero")
}

func TestStatus_ClearWithoutPendingStatusIsNoOp(t *testing.T) {
	d, buf := newTestDisplay(t)
	d.Status("")
	assert.Empty(t, buf.String())
}

func TestSuccessAndFailureKeepMessage(t *testing.T) {
	d, _ := newTestDisplay(t)
	assert.Contains(t, d.Success("Finished."), "Finished.")
	assert.Contains(t, d.Failure("There were errors:"), "There were errors:")
}

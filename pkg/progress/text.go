package progress

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/bft-labs/imgship/pkg/transfer"
)

// DefaultMinWidth is the minimum field width of each number.
const DefaultMinWidth = 6

// Text writes "  1024/  2500 bytes" lines for each event.
type Text struct {
	mu       sync.Mutex
	w        io.Writer
	inPlace  bool
	minWidth int
}

// TextOption configures a Text reporter.
type TextOption func(*Text)

// InPlace rewrites a single line with a carriage return instead of
// appending a line per event. A newline follows the final event.
func InPlace(on bool) TextOption {
	return func(t *Text) {
		t.inPlace = on
	}
}

// MinWidth sets the minimum field width of each number.
func MinWidth(n int) TextOption {
	return func(t *Text) {
		t.minWidth = n
	}
}

// NewText creates a text reporter writing to w.
func NewText(w io.Writer, opts ...TextOption) *Text {
	t := &Text{w: w, minWidth: DefaultMinWidth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Report implements transfer.Reporter.
func (t *Text) Report(e transfer.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := Format(e, t.minWidth)
	if t.inPlace {
		fmt.Fprint(t.w, "\r"+line)
		if e.Final() {
			fmt.Fprintln(t.w)
		}
		return
	}
	fmt.Fprintln(t.w, line)
}

// Format renders an event right-justified to at least minWidth, widened to
// the digit count of the total so that every line of a transfer aligns.
func Format(e transfer.Event, minWidth int) string {
	width := len(strconv.FormatInt(e.TotalBytes, 10))
	if width < minWidth {
		width = minWidth
	}
	return fmt.Sprintf("%*d/%*d bytes", width, e.BytesSent, width, e.TotalBytes)
}

// IsTerminal reports whether w is a terminal, in which case in-place
// output is appropriate.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

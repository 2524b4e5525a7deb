package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/timeexpr"
)

const defaultWidth = 100

var styles = struct {
	title  lipgloss.Style
	header lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	hint   lipgloss.Style
	unread lipgloss.Style
}{
	title:  lipgloss.NewStyle().Bold(true),
	header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	hint:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	unread: lipgloss.NewStyle().Bold(true),
}

// termWidth returns the width of w when it is a terminal.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// column is one column of a table; width 0 takes the remaining space.
type column struct {
	title string
	width int
}

// table prints rows with fixed-width columns fitted to the terminal.
type table struct {
	w    io.Writer
	cols []column
}

func newTable(w io.Writer, cols ...column) *table {
	fixed, flex := 0, -1
	for i, c := range cols {
		if c.width == 0 {
			flex = i
			continue
		}
		fixed += c.width + 1
	}
	if flex >= 0 {
		cols[flex].width = max(termWidth(w)-fixed, 20)
	}
	return &table{w: w, cols: cols}
}

func (t *table) header() {
	cells := make([]string, len(t.cols))
	total := 0
	for i, c := range t.cols {
		cells[i] = pad(c.title, c.width)
		total += c.width + 1
	}
	fmt.Fprintln(t.w, styles.header.Render(strings.TrimRight(strings.Join(cells, " "), " ")))
	fmt.Fprintln(t.w, styles.dim.Render(strings.Repeat("─", total-1)))
}

func (t *table) row(values ...string) {
	cells := make([]string, len(t.cols))
	for i, c := range t.cols {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		cells[i] = pad(truncate(oneLine(v), c.width), c.width)
	}
	fmt.Fprintln(t.w, strings.TrimRight(strings.Join(cells, " "), " "))
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// truncate shortens s to width runes, ending with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseTime parses a --since style flag. Empty input yields the zero time.
func parseTime(flag, expr string) (time.Time, error) {
	if strings.TrimSpace(expr) == "" {
		return time.Time{}, nil
	}
	t, err := timeexpr.Parse(expr, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s: %w", domain.ErrInvalidInput, flag, err)
	}
	return t, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

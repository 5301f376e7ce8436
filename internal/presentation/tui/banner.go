package tui

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/muesli/termenv"
)

// Styler colors REPL output when the terminal supports it.
// With an ASCII profile every method returns its input unchanged.
type Styler struct {
	out *termenv.Output
}

// NewStyler creates a Styler for the terminal behind w.
func NewStyler(w io.Writer, opts ...termenv.OutputOption) *Styler {
	return &Styler{out: termenv.NewOutput(w, opts...)}
}

// Banner returns the ASCII art banner followed by the version.
func (s *Styler) Banner(version string) string {
	lines := []struct {
		text  string
		color string
	}{
		{" _____           _             ", "#818cf8"},
		{"|_   _|   _ _ __(_)_ __   __ _ ", "#a78bfa"},
		{"  | || | | | '__| | '_ \\ / _` |", "#c084fc"},
		{"  | || |_| | |  | | | | | (_| |", "#e879f9"},
		{"  |_| \\__,_|_|  |_|_| |_|\\__, |", "#f472b6"},
		{"                         |___/ ", "#fb7185"},
	}

	var sb strings.Builder
	sb.WriteString("\n")
	for _, l := range lines {
		sb.WriteString(s.out.String(l.text).Foreground(s.out.Color(l.color)).String())
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%s\n\n", s.out.String("  v"+strings.TrimSpace(version)).Faint())
	return sb.String()
}

// PrintBanner writes the banner to w.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, NewStyler(w).Banner(version))
}

var headCell = regexp.MustCompile(`<.>`)

// Status highlights the head cell and the halt notice of a status summary.
func (s *Styler) Status(summary string) string {
	summary = headCell.ReplaceAllStringFunc(summary, func(cell string) string {
		return s.out.String(cell).Bold().Foreground(s.out.Color("#fbbf24")).String()
	})
	return strings.Replace(summary, "Machine halted", s.out.String("Machine halted").Foreground(s.out.Color("#f87171")).String(), 1)
}

// Error styles an error message.
func (s *Styler) Error(msg string) string {
	return s.out.String(msg).Foreground(s.out.Color("#f87171")).String()
}

// System styles a message that comes from the REPL itself rather than the machine.
func (s *Styler) System(msg string) string {
	return s.out.String(msg).Faint().String()
}

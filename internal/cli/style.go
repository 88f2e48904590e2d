package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the base16 slots the CLI uses.
type palette struct {
	Base01 lipgloss.Color // Surface
	Base03 lipgloss.Color // Muted
	Base05 lipgloss.Color // Text
	Base07 lipgloss.Color
	Base08 lipgloss.Color
	Base09 lipgloss.Color
	Base0A lipgloss.Color
	Base0B lipgloss.Color
	Base0C lipgloss.Color
	Base0D lipgloss.Color
	Base0E lipgloss.Color
}

var (
	cyan   = lipgloss.Color("#08bdba")
	teal   = lipgloss.Color("#3ddbd9")
	blue1  = lipgloss.Color("#78a9ff")
	pink   = lipgloss.Color("#ee5396")
	green  = lipgloss.Color("#42be65")
	purple = lipgloss.Color("#be95ff")
	blue2  = lipgloss.Color("#33b1ff")
	pink2  = lipgloss.Color("#ff7eb6")

	// Oxocarbon Dark Palette
	//
	// Source: https://github.com/nyoom-engineering/oxoc
	oxoc = palette{
		Base01: lipgloss.Color("#262626"),
		Base03: lipgloss.Color("#525252"),
		Base05: lipgloss.Color("#f2f4f8"),
		Base07: cyan,
		Base08: teal,
		Base09: blue1,
		Base0A: pink,
		Base0B: blue2,
		Base0C: pink2,
		Base0D: green,
		Base0E: purple,
	}
)

// Styles wraps the lipgloss styles for the application.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Link    lipgloss.Style
	Path    lipgloss.Style
	Code    lipgloss.Style
}

// NewStyles returns a new Styles struct with Oxocarbon defaults.
func NewStyles() *Styles {
	return &Styles{
		Header:  lipgloss.NewStyle().Foreground(oxoc.Base0E).Bold(true),
		Success: lipgloss.NewStyle().Foreground(oxoc.Base0D),
		Error:   lipgloss.NewStyle().Foreground(oxoc.Base0C),
		Warning: lipgloss.NewStyle().Foreground(oxoc.Base0A),
		Info:    lipgloss.NewStyle().Foreground(oxoc.Base09),
		Muted:   lipgloss.NewStyle().Foreground(oxoc.Base03),
		Accent:  lipgloss.NewStyle().Foreground(oxoc.Base07),
		Link:    lipgloss.NewStyle().Foreground(oxoc.Base0B).Underline(true),
		Path:    lipgloss.NewStyle().Foreground(oxoc.Base08),
		Code:    lipgloss.NewStyle().Foreground(oxoc.Base05).Background(oxoc.Base01).Padding(0, 1),
	}
}

var p = NewPrinter(os.Stdout)

// Printer writes styled status lines and formats record fields.
type Printer struct {
	Styles *Styles
	out    io.Writer
}

// NewPrinter creates a Printer with Oxocarbon styles writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{Styles: NewStyles(), out: out}
}

func (p *Printer) PrintHeader(msg string) {
	fmt.Fprintln(p.out, p.Styles.Header.Render(msg))
}

// PrintSuccess prints a success message with a checkmark unless --quiet is set.
func (p *Printer) PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Styles.Success.Render("✔"), msg)
}

// PrintError prints an error message to stderr with a cross.
func (p *Printer) PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", p.Styles.Error.Render("✘"), msg)
}

func (p *Printer) PrintWarning(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.Styles.Warning.Render("⚠"), msg)
}

func (p *Printer) PrintInfo(msg string) {
	if quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Styles.Info.Render("ℹ"), msg)
}

// PrintListItem prints a muted label with a value.
func (p *Printer) PrintListItem(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.Styles.Muted.Render(label), value)
}

func (p *Printer) FormatPath(path string) string {
	return p.Styles.Path.Render(path)
}

// FormatRef formats a record reference such as "topic #12".
func (p *Printer) FormatRef(kind string, id int64) string {
	return p.Styles.Accent.Render(fmt.Sprintf("%s #%d", kind, id))
}

// FormatStatus colours a task status.
func (p *Printer) FormatStatus(status string) string {
	switch status {
	case "completed":
		return p.Styles.Success.Render(status)
	case "blocked":
		return p.Styles.Error.Render(status)
	case "in_progress":
		return p.Styles.Info.Render(status)
	default:
		return p.Styles.Muted.Render(status)
	}
}

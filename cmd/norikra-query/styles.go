package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/yui-knk/norikra/analysis"
)

var (
	// Severity colors.
	colorError   = lipgloss.Color("#ef4444") // red-500
	colorWarning = lipgloss.Color("#eab308") // yellow-500
	colorInfo    = lipgloss.Color("#06b6d4") // cyan-500
	colorHint    = lipgloss.Color("#10b981") // green-500

	// UI colors.
	colorDim    = lipgloss.Color("#6b7280") // gray-500
	colorAccent = lipgloss.Color("#3b82f6") // blue-500
)

// styles holds the lipgloss styles for command output.
type styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Hint    lipgloss.Style

	Dim    lipgloss.Style
	Bold   lipgloss.Style
	Stream lipgloss.Style

	SymbolOK   string
	SymbolFail string
}

// newStyles returns colored styles when w is a terminal and color is not
// disabled, plain styles otherwise.
func newStyles(w io.Writer, noColor bool) *styles {
	s := &styles{
		SymbolOK:   "✓",
		SymbolFail: "✗",
	}

	r := lipgloss.NewRenderer(w)

	if !useColor(w, noColor) {
		plain := r.NewStyle()
		s.Error, s.Warning, s.Info, s.Hint = plain, plain, plain, plain
		s.Dim, s.Bold, s.Stream = plain, plain, plain

		return s
	}

	s.Error = r.NewStyle().Foreground(colorError).Bold(true)
	s.Warning = r.NewStyle().Foreground(colorWarning).Bold(true)
	s.Info = r.NewStyle().Foreground(colorInfo).Bold(true)
	s.Hint = r.NewStyle().Foreground(colorHint)
	s.Dim = r.NewStyle().Foreground(colorDim)
	s.Bold = r.NewStyle().Bold(true)
	s.Stream = r.NewStyle().Foreground(colorAccent).Bold(true)

	return s
}

func useColor(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}

	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

// severity returns the style for a diagnostic severity.
func (s *styles) severity(sev analysis.DiagnosticSeverity) lipgloss.Style {
	switch sev {
	case analysis.SeverityError:
		return s.Error
	case analysis.SeverityWarning:
		return s.Warning
	case analysis.SeverityInformation:
		return s.Info
	default:
		return s.Hint
	}
}

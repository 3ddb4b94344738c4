package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode selects when the printer emits colors.
type ColorMode int

const (
	// ColorAuto follows NO_COLOR, TERM=dumb and the output.colors setting.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors decides whether to color output.
func ResolveColors(mode ColorMode, configColors bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return configColors
	}
}

// Printer writes status lines to out and errors to errOut.
type Printer struct {
	out       io.Writer
	errOut    io.Writer
	useColors bool
	theme     Theme
}

// NewPrinter returns a printer. Without colors the theme is always Mono.
func NewPrinter(out, errOut io.Writer, useColors bool, theme Theme) *Printer {
	if !useColors {
		theme = Mono()
	}
	return &Printer{out: out, errOut: errOut, useColors: useColors, theme: theme}
}

func (p *Printer) Out() io.Writer { return p.out }
func (p *Printer) Theme() Theme   { return p.theme }
func (p *Printer) Colors() bool   { return p.useColors }

func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// OK prints a success line.
func (p *Printer) OK(format string, args ...any) {
	p.paint(color.FgGreen).Fprintf(p.out, p.theme.SymOK+" "+format+"\n", args...)
}

// Fail prints an error line to errOut.
func (p *Printer) Fail(format string, args ...any) {
	p.paint(color.FgRed).Fprintf(p.errOut, p.theme.SymFail+" "+format+"\n", args...)
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.paint(color.FgCyan).Fprintf(p.out, format+"\n", args...)
}

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	return p.paint(color.Bold).Sprint(text)
}

// Dim returns dimmed text.
func (p *Printer) Dim(text string) string {
	return p.paint(color.Faint).Sprint(text)
}

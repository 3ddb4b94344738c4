package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette, symbols and box border.
// Renderers in the CLI and the TUI pull from the same Theme.
type Theme struct {
	Name string

	Title, Muted, Accent   lipgloss.Style
	Success, Error, Unread lipgloss.Style
	Read, Selected, Header lipgloss.Style

	Border      lipgloss.Border
	BorderColor lipgloss.TerminalColor

	SymRead, SymUnread, SymCursor string
	SymOK, SymFail                string
}

// ThemeNames lists the accepted theme names.
var ThemeNames = []string{"classic", "neon", "mono"}

// ParseTheme returns the named theme. An empty name is classic.
func ParseTheme(name string) (Theme, error) {
	switch strings.ToLower(name) {
	case "", "classic":
		return classic(), nil
	case "neon":
		return neon(), nil
	case "mono":
		return Mono(), nil
	default:
		return classic(), fmt.Errorf("unknown theme %q: must be one of %s", name, strings.Join(ThemeNames, ", "))
	}
}

func classic() Theme {
	return Theme{
		Name:     "classic",
		Title:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Unread:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Read:     lipgloss.NewStyle().Faint(true),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),

		Border:      lipgloss.RoundedBorder(),
		BorderColor: lipgloss.Color("8"),

		SymRead: "✔", SymUnread: "•", SymCursor: "> ",
		SymOK: "✔", SymFail: "✖",
	}
}

func neon() Theme {
	t := classic()
	t.Name = "neon"
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	t.Unread = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	t.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	t.BorderColor = lipgloss.Color("13")
	t.SymUnread = "◆"
	return t
}

// Mono is the colorless theme, used whenever colors are off.
func Mono() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:  "mono",
		Title: plain, Muted: plain, Accent: plain,
		Success: plain, Error: plain, Unread: plain,
		Read: plain, Selected: plain, Header: plain,

		Border:      lipgloss.NormalBorder(),
		BorderColor: lipgloss.NoColor{},

		SymRead: "x", SymUnread: "-", SymCursor: "> ",
		SymOK: "[OK]", SymFail: "[ERROR]",
	}
}

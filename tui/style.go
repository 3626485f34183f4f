package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleStatusBattle = lipgloss.NewStyle().
				Background(lipgloss.Color("52")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleDealt = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleTaken = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleDefeat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindDealt
	kindTaken
	kindReward
	kindDefeat
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You strike"),
		strings.HasPrefix(line, "Your skill"):
		return kindDealt
	case strings.Contains(line, " hits you for "):
		return kindTaken
	case strings.HasSuffix(line, " is defeated!"),
		strings.HasPrefix(line, "You gain"),
		strings.HasPrefix(line, "You receive"),
		strings.HasPrefix(line, "You got away"):
		return kindReward
	case strings.HasPrefix(line, "You have been defeated"),
		strings.HasPrefix(line, "You lose"):
		return kindDefeat
	case strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You don't"),
		strings.HasPrefix(line, "You are already"),
		strings.HasPrefix(line, "You are not in battle"),
		strings.HasPrefix(line, "It's not your turn"),
		strings.HasPrefix(line, "There is nothing"),
		strings.HasPrefix(line, "Something went wrong"):
		return kindError
	default:
		return kindNarration
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

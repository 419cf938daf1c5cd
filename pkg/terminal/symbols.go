package terminal

import "github.com/charmbracelet/lipgloss"

var (
	infoSymbolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true).
			SetString("ⓘ")

	errorSymbolStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true).
				SetString("✗")

	warningSymbolStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				SetString("⚠")

	successSymbolStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10")).
				Bold(true).
				SetString("✔")

	timerSymbolStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("75")).
				SetString("⏱")

	actionSymbolStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				SetString("▶")

	linkSymbolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			SetString("→")

	boldStyle = lipgloss.NewStyle().Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

var (
	// InfoSymbol (ⓘ)
	InfoSymbol = infoSymbolStyle.String()

	// ErrorSymbol (✗)
	ErrorSymbol = errorSymbolStyle.String()

	// WarningSymbol (⚠)
	WarningSymbol = warningSymbolStyle.String()

	// SuccessSymbol (✔)
	SuccessSymbol = successSymbolStyle.String()

	// TimerSymbol (⏱)
	TimerSymbol = timerSymbolStyle.String()

	// ActionSymbol (▶)
	ActionSymbol = actionSymbolStyle.String()

	// LinkSymbol (→)
	LinkSymbol = linkSymbolStyle.String()
)

func Bold(s string) string {
	return boldStyle.Render(s)
}

func Dim(s string) string {
	return dimStyle.Render(s)
}

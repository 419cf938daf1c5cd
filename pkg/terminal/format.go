package terminal

import (
	"regexp"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders model output for the terminal. On renderer errors
// the raw content is returned so the response is never lost to a styling
// problem.
func RenderMarkdown(content string, width int) string {
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"), // avoid OSC background queries
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	out, err := md.Render(content)
	if err != nil {
		return content
	}

	return trimTrailingWhitespaceWithANSI(trimLeadingWhitespaceWithANSI(out))
}

var (
	leadingANSIWhitespace  = regexp.MustCompile(`^(?:\x1b\[[0-9;]*m|\s)*`)
	trailingANSIWhitespace = regexp.MustCompile(`(?:\x1b\[[0-9;]*m|\s)*$`)
)

func trimLeadingWhitespaceWithANSI(s string) string {
	return leadingANSIWhitespace.ReplaceAllString(s, "")
}

func trimTrailingWhitespaceWithANSI(s string) string {
	return trailingANSIWhitespace.ReplaceAllString(s, "")
}

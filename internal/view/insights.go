package view

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
)

const paragraphOpen = `<p class="text-dark">`

// FormatInsights turns the lightweight markup of an insights response into
// HTML: **bold**, *italic*, a blank line starts a paragraph and a single
// newline is a line break. The input is escaped first so it cannot inject
// markup of its own.
func FormatInsights(text string) string {
	s := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = strings.ReplaceAll(s, "\n\n", "</p>"+paragraphOpen)
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = paragraphOpen + s + "</p>"
	return strings.ReplaceAll(s, paragraphOpen+"</p>", "")
}

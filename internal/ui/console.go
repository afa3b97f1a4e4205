package ui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/citypulse/client/pkg/core"
)

var _ Surface = (*Console)(nil)

// Console writes surface output as plain text, for the command line.
// Progress and button changes only go to the debug log.
type Console struct {
	w      io.Writer
	logger *slog.Logger
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Console{w: w, logger: logger}
}

func (c *Console) Alert(msg string) {
	fmt.Fprintf(c.w, "!! %s\n", msg)
}

func (c *Console) Notice(msg string) {
	fmt.Fprintf(c.w, "-- %s\n", msg)
}

func (c *Console) ShowProgress(msg string) {
	c.logger.Debug("progress", "message", msg)
}

func (c *Console) HideProgress() {
	c.logger.Debug("progress hidden")
}

func (c *Console) SetButton(b Button, s ButtonState) {
	c.logger.Debug("button", "button", string(b), "loading", s.Loading, "label", s.Label)
}

func (c *Console) SetInput(text string) {
	fmt.Fprintf(c.w, "> %s\n", text)
}

func (c *Console) ShowSuggestions(list []string, selected int) {
	for i, s := range list {
		marker := "  "
		if i == selected {
			marker = "* "
		}
		fmt.Fprintf(c.w, "%s%s\n", marker, s)
	}
}

func (c *Console) HideSuggestions() {
	c.logger.Debug("suggestions hidden")
}

func (c *Console) ShowModal(m core.Modal) {
	fmt.Fprintf(c.w, "%s\n%s (%s)\n", m.Title, m.Heading, m.Kind)
	for _, f := range m.Fields {
		line := fmt.Sprintf("  %s: %s", f.Label, f.Value)
		if f.Link != "" {
			line += " <" + f.Link + ">"
		}
		fmt.Fprintln(c.w, line)
	}
	for _, l := range m.Sources {
		fmt.Fprintf(c.w, "  %s <%s>\n", l.Label, l.URL)
	}
}

func (c *Console) ShowInsights(v core.InsightsView) {
	switch v.State {
	case core.InsightsReady:
		fmt.Fprintf(c.w, "Personalized Recommendations\n%s\n", v.HTML)
	case core.InsightsFailed:
		fmt.Fprintf(c.w, "!! %s\n", v.Error)
	default:
		c.logger.Debug("insights", "state", v.State.String())
	}
}

func (c *Console) ShowPopup(p core.Popup) {
	fmt.Fprintf(c.w, "%s %s\n", p.Icon, p.Title)
	if p.Description != "" {
		fmt.Fprintf(c.w, "  %s\n", p.Description)
	}
	if len(p.Lines) > 0 {
		fmt.Fprintf(c.w, "  %s\n", strings.Join(p.Lines, "\n  "))
	}
}

func (c *Console) ShowShareLink(url string) {
	fmt.Fprintf(c.w, "Share link: %s\n", url)
}

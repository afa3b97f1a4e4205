// Package ui is the presentation boundary. Session components report
// everything the user sees through a Surface.
package ui

import "github.com/citypulse/client/pkg/core"

// Button identifies a control whose loading state is managed by the session.
type Button string

const (
	ButtonDiscover Button = "discover"
	ButtonSearch   Button = "search"
	ButtonInsights Button = "insights"
)

// ButtonState is what a button shows.
type ButtonState struct {
	Loading bool
	Label   string
}

// Surface renders session output. All methods are called on the event loop.
type Surface interface {
	// Alert is a blocking message for hard failures.
	Alert(msg string)
	// Notice is an inline, non-blocking message.
	Notice(msg string)
	ShowProgress(msg string)
	HideProgress()
	SetButton(b Button, s ButtonState)
	// SetInput replaces the search box text.
	SetInput(text string)
	ShowSuggestions(list []string, selected int)
	HideSuggestions()
	ShowModal(m core.Modal)
	ShowInsights(v core.InsightsView)
	ShowPopup(p core.Popup)
	ShowShareLink(url string)
}

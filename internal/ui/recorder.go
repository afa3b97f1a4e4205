package ui

import (
	"sync"

	"github.com/citypulse/client/pkg/core"
)

var _ Surface = (*Recorder)(nil)

// Recorder keeps the latest state of every surface element plus a log of
// alerts and notices.
type Recorder struct {
	mu sync.Mutex

	Alerts          []string
	Notices         []string
	Progress        string
	ProgressVisible bool
	Buttons         map[Button]ButtonState
	Input           string
	Suggestions     []string
	Selected        int
	SuggestionsOpen bool
	Modal           *core.Modal
	Insights        core.InsightsView
	Popups          []core.Popup
	ShareLinks      []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Buttons: make(map[Button]ButtonState), Selected: -1}
}

func (r *Recorder) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, msg)
}

func (r *Recorder) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, msg)
}

func (r *Recorder) ShowProgress(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress = msg
	r.ProgressVisible = true
}

func (r *Recorder) HideProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ProgressVisible = false
}

func (r *Recorder) SetButton(b Button, s ButtonState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Buttons[b] = s
}

func (r *Recorder) SetInput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Input = text
}

func (r *Recorder) ShowSuggestions(list []string, selected int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Suggestions = append([]string(nil), list...)
	r.Selected = selected
	r.SuggestionsOpen = true
}

func (r *Recorder) HideSuggestions() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Suggestions = nil
	r.Selected = -1
	r.SuggestionsOpen = false
}

func (r *Recorder) ShowModal(m core.Modal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Modal = &m
}

func (r *Recorder) ShowInsights(v core.InsightsView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Insights = v
}

func (r *Recorder) ShowPopup(p core.Popup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Popups = append(r.Popups, p)
}

func (r *Recorder) ShowShareLink(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ShareLinks = append(r.ShareLinks, url)
}

// Button returns the last state set for b.
func (r *Recorder) Button(b Button) ButtonState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Buttons[b]
}

// LastAlert returns the most recent alert, or "".
func (r *Recorder) LastAlert() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Alerts) == 0 {
		return ""
	}
	return r.Alerts[len(r.Alerts)-1]
}

// LastNotice returns the most recent notice, or "".
func (r *Recorder) LastNotice() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Notices) == 0 {
		return ""
	}
	return r.Notices[len(r.Notices)-1]
}

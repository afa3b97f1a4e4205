// Package suggest runs the search box completion list: debounced fetches,
// keyboard selection and the rule that a response for a superseded query is
// never shown.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/pkg/core"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/citypulse/client/internal/suggest"

// State of the suggestion list.
type State int

const (
	Idle State = iota
	Debouncing
	Fetching
	Showing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	case Showing:
		return "showing"
	}
	return "unknown"
}

// Key is a keyboard key the list reacts to.
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyArrowUp   Key = "ArrowUp"
	KeyEnter     Key = "Enter"
	KeyTab       Key = "Tab"
	KeyEscape    Key = "Escape"
)

// Fetcher retrieves completions for a partial query.
type Fetcher interface {
	Suggestions(ctx context.Context, query string, p core.LatLng) ([]string, error)
}

// Config tunes the session.
type Config struct {
	MinChars int
	Debounce time.Duration
	// MaxSuggestions of zero shows every suggestion the backend returns.
	MaxSuggestions int
	// CacheSize of zero disables the completion cache.
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig matches the behaviour of the web client.
func DefaultConfig() Config {
	return Config{
		MinChars:  4,
		Debounce:  500 * time.Millisecond,
		CacheSize: 32,
		CacheTTL:  5 * time.Minute,
	}
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	Query       string
	Suggestions []string
	Selected    int
	State       State
	Visible     bool
}

// Deps are the collaborators of a Session.
type Deps struct {
	Scheduler eventloop.Scheduler
	Fetcher   Fetcher
	Surface   ui.Surface
	// Location returns the session location, if known.
	Location func() (core.LatLng, bool)
	// Search runs a search for the committed text.
	Search func(query string)
	Logger *slog.Logger
}

// Session owns the suggestion list of one search box. It must only be used
// from the event loop.
type Session struct {
	d     Deps
	cfg   Config
	cache *expirable.LRU[string, []string]
	stale metric.Int64Counter

	text     string
	query    string
	state    State
	visible  bool
	list     []string
	selected int
	timer    eventloop.Timer
}

// New creates an idle Session.
func New(d Deps, cfg Config) (*Session, error) {
	if cfg.MinChars <= 0 {
		cfg.MinChars = 4
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	s := &Session{d: d, cfg: cfg, selected: -1}
	if cfg.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, []string](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	var err error
	s.stale, err = otel.Meter(instrumentationName).Int64Counter(
		"suggest.responses.stale",
		metric.WithDescription("Suggestion responses dropped because the query moved on"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale counter: %w", err)
	}
	return s, nil
}

// Text is the raw search box text.
func (s *Session) Text() string {
	return s.text
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Query:       s.query,
		Suggestions: append([]string(nil), s.list...),
		Selected:    s.selected,
		State:       s.state,
		Visible:     s.visible,
	}
}

// Input handles a change of the search box text.
func (s *Session) Input(text string) {
	s.text = text
	s.query = strings.TrimSpace(text)
	s.stopTimer()

	if utf8.RuneCountInString(s.query) < s.cfg.MinChars {
		s.dismiss()
		return
	}
	s.state = Debouncing
	s.timer = s.d.Scheduler.AfterFunc(s.cfg.Debounce, s.fire)
}

// SetText replaces the search box text without triggering suggestions.
func (s *Session) SetText(text string) {
	s.stopTimer()
	s.text = text
	s.query = strings.TrimSpace(text)
	s.dismiss()
	s.d.Surface.SetInput(text)
}

func (s *Session) fire() {
	s.timer = nil
	loc, ok := s.d.Location()
	if !ok {
		s.dismiss()
		return
	}
	s.state = Fetching
	q := s.query
	key := cacheKey(q, loc)

	if s.cache != nil {
		if list, ok := s.cache.Get(key); ok {
			s.d.Logger.Debug("suggestions served from cache", "query", q)
			s.arrive(q, list, nil)
			return
		}
	}

	var (
		list []string
		err  error
	)
	s.d.Scheduler.Go(func(ctx context.Context) {
		list, err = s.d.Fetcher.Suggestions(ctx, q, loc)
	}, func() {
		if err == nil && len(list) > 0 && s.cache != nil {
			s.cache.Add(key, list)
		}
		s.arrive(q, list, err)
	})
}

func (s *Session) arrive(q string, list []string, err error) {
	if q != s.query || s.state == Idle {
		s.stale.Add(context.Background(), 1)
		s.d.Logger.Debug("dropping stale suggestions", "query", q, "current", s.query)
		return
	}
	if err != nil {
		s.d.Logger.Warn("suggestion fetch failed", "query", q, "error", err)
		s.dismiss()
		return
	}
	if len(list) == 0 {
		s.dismiss()
		return
	}
	if s.cfg.MaxSuggestions > 0 && len(list) > s.cfg.MaxSuggestions {
		list = list[:s.cfg.MaxSuggestions]
	}
	s.state = Showing
	s.visible = true
	s.list = append([]string(nil), list...)
	s.selected = -1
	s.d.Surface.ShowSuggestions(s.list, s.selected)
}

// Key handles a key press in the search box.
func (s *Session) Key(k Key) {
	if !s.visible {
		if k == KeyEnter {
			q := s.query
			s.dismiss()
			s.d.Search(q)
		}
		return
	}
	switch k {
	case KeyArrowDown:
		s.selected = min(s.selected+1, len(s.list)-1)
		s.d.Surface.ShowSuggestions(s.list, s.selected)
	case KeyArrowUp:
		s.selected = max(s.selected-1, -1)
		s.d.Surface.ShowSuggestions(s.list, s.selected)
	case KeyEnter, KeyTab:
		if s.selected >= 0 {
			s.commit(s.list[s.selected])
			return
		}
		q := s.query
		s.dismiss()
		s.d.Search(q)
	case KeyEscape:
		s.dismiss()
	}
}

// Select commits the suggestion at index i, as a click would.
func (s *Session) Select(i int) error {
	if !s.visible || i < 0 || i >= len(s.list) {
		return fmt.Errorf("no suggestion at %d", i)
	}
	s.commit(s.list[i])
	return nil
}

// ClickOutside dismisses the list.
func (s *Session) ClickOutside() {
	s.dismiss()
}

// Close cancels a pending debounce.
func (s *Session) Close() {
	s.stopTimer()
	s.state = Idle
}

func (s *Session) commit(text string) {
	s.text = text
	s.query = strings.TrimSpace(text)
	s.d.Surface.SetInput(text)
	s.dismiss()
	s.d.Search(s.query)
}

func (s *Session) dismiss() {
	s.stopTimer()
	wasVisible := s.visible
	s.state = Idle
	s.visible = false
	s.list = nil
	s.selected = -1
	if wasVisible {
		s.d.Surface.HideSuggestions()
	}
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func cacheKey(q string, p core.LatLng) string {
	return fmt.Sprintf("%s|%.3f,%.3f", strings.ToLower(q), p.Lat, p.Lng)
}

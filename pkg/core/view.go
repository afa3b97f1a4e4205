// pkg/core/view.go
package core

// Popup is the summary shown when a marker is activated.
type Popup struct {
	RecordID    string   `json:"recordId,omitempty"`
	Icon        string   `json:"icon"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lines       []string `json:"lines"`
	Action      string   `json:"action,omitempty"`
}

// Field is one labelled value of a modal.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Link  string `json:"link,omitempty"`
}

// Link is an outbound source link.
type Link struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Modal is the detail view for one record.
type Modal struct {
	RecordID string  `json:"recordId"`
	Title    string  `json:"title"`
	Heading  string  `json:"heading"`
	Badge    string  `json:"badge"`
	Kind     string  `json:"kind"`
	Fields   []Field `json:"fields"`
	Sources  []Link  `json:"sources,omitempty"`
}

// InsightsState is the lifecycle of the enrichment panel of an open modal.
type InsightsState int

const (
	InsightsNotFetched InsightsState = iota
	InsightsLoading
	InsightsReady
	InsightsFailed
)

func (s InsightsState) String() string {
	switch s {
	case InsightsNotFetched:
		return "not-fetched"
	case InsightsLoading:
		return "loading"
	case InsightsReady:
		return "ready"
	case InsightsFailed:
		return "failed"
	}
	return "unknown"
}

// InsightsView is what the presentation layer shows in the insights panel.
type InsightsView struct {
	State InsightsState `json:"state"`
	HTML  string        `json:"html,omitempty"`
	Error string        `json:"error,omitempty"`
}

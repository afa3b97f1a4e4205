// pkg/core/record.go
package core

// DetailRecord is the full description of one placed marker, kept by the
// marker registry for popup and modal lookups.
type DetailRecord struct {
	ID          string    `json:"id"`
	Category    Category  `json:"type"`
	SourceID    string    `json:"sourceId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Address     string    `json:"address,omitempty"`
	Cuisine     string    `json:"cuisine,omitempty"`
	Severity    string    `json:"severity,omitempty"`
	Website     string    `json:"website,omitempty"`
	Citation    *Citation `json:"citation,omitempty"`
	Position    LatLng    `json:"position"`
	Synthesized bool      `json:"synthesized"`
}

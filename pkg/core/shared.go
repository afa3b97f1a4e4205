// pkg/core/shared.go
package core

// SharedAtLayout is the timestamp layout of shared_at.
const SharedAtLayout = "2006-01-02 15:04:05.999999"

// ShareRequest is the body of a share-location call.
type ShareRequest struct {
	Name        string     `json:"name"`
	Type        Category   `json:"type"`
	Description string     `json:"description"`
	Address     string     `json:"address,omitempty"`
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
	Date        string     `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	Cuisine     string     `json:"cuisine,omitempty"`
	Severity    string     `json:"severity,omitempty"`
	Website     string     `json:"website,omitempty"`
	Citation    *Citation  `json:"citation,omitempty"`
}

// ShareRequestFrom builds a share request from a stored record.
func ShareRequestFrom(r DetailRecord) ShareRequest {
	return ShareRequest{
		Name:        r.Name,
		Type:        r.Category,
		Description: r.Description,
		Address:     r.Address,
		Latitude:    NewCoordinate(r.Position.Lat),
		Longitude:   NewCoordinate(r.Position.Lng),
		Date:        r.Date,
		Time:        r.Time,
		Cuisine:     r.Cuisine,
		Severity:    r.Severity,
		Website:     r.Website,
		Citation:    r.Citation,
	}
}

// SharedLocation is a location previously shared through the backend.
type SharedLocation struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        Category   `json:"type"`
	Description string     `json:"description"`
	Address     string     `json:"address,omitempty"`
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
	Date        string     `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	Cuisine     string     `json:"cuisine,omitempty"`
	Severity    string     `json:"severity,omitempty"`
	Website     string     `json:"website,omitempty"`
	Citation    *Citation  `json:"citation,omitempty"`
	SharedAt    string     `json:"shared_at,omitempty"`
}

// InsightsRequest carries the fields the insights endpoint is keyed by.
type InsightsRequest struct {
	Name        string
	Category    Category
	Description string
	Address     string
}

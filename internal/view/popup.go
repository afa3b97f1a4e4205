// Package view builds the presentation models shown for records: marker
// popups, detail modals, insights markup and outbound links.
package view

import (
	"github.com/citypulse/client/pkg/core"
)

// ActionLearnMore is the popup action that opens the detail modal.
const ActionLearnMore = "learn-more"

// ActionDirections is the popup action on shared-location pins.
const ActionDirections = "directions"

// Popup placeholders. These differ from the store placeholders on purpose:
// the popup is built from the item as received.
const (
	PopupDateTBD        = "Date TBD"
	PopupTimeTBD        = "Time TBD"
	PopupLocationTBD    = "Location TBD"
	PopupVariousCuisine = "Various cuisine"
	PopupOpenToday      = "Open Today"
	PopupHoursTBD       = "Hours TBD"
	PopupAddressTBD     = "Address TBD"
	PopupCurrent        = "Current"
	PopupOngoing        = "Ongoing"
	PopupSeverityNormal = "Normal"
)

// Popup summarises an item for the marker popup.
func Popup(c core.Category, it core.Item, recordID string) core.Popup {
	p := core.Popup{
		RecordID:    recordID,
		Icon:        c.Style().Icon,
		Title:       it.DisplayName(),
		Description: it.Description,
		Action:      ActionLearnMore,
	}
	switch c {
	case core.CategoryEvent:
		p.Lines = []string{
			"📅 " + or(it.Date, PopupDateTBD) + " • ⏰ " + or(it.Time, PopupTimeTBD),
			"📍 " + or(it.Address, PopupLocationTBD),
		}
	case core.CategoryRestaurant:
		p.Lines = []string{
			"🍽️ " + or(it.Cuisine, PopupVariousCuisine),
			"📅 " + or(it.Date, PopupOpenToday) + " • ⏰ " + or(it.Time, PopupHoursTBD),
			"📍 " + or(it.Address, PopupAddressTBD),
		}
	case core.CategoryAlert:
		p.Lines = []string{
			"📅 " + or(it.Date, PopupCurrent) + " • ⏰ " + or(it.Time, PopupOngoing),
			"🚨 Severity: " + or(it.Severity, PopupSeverityNormal),
		}
	}
	return p
}

// SharedPopup summarises a shared location. Only the fields that are present
// are listed.
func SharedPopup(loc core.SharedLocation) core.Popup {
	p := core.Popup{
		Icon:        loc.Type.Badge(),
		Title:       loc.Name,
		Description: loc.Description,
		Action:      ActionDirections,
	}
	if loc.Address != "" {
		p.Lines = append(p.Lines, "📍 "+loc.Address)
	}
	if loc.Date != "" {
		p.Lines = append(p.Lines, "📅 "+loc.Date)
	}
	if loc.Time != "" {
		p.Lines = append(p.Lines, "⏰ "+loc.Time)
	}
	if loc.Cuisine != "" {
		p.Lines = append(p.Lines, "🍽️ "+loc.Cuisine)
	}
	return p
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

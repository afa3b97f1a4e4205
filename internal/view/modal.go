package view

import (
	"github.com/citypulse/client/pkg/core"
)

type template struct {
	heading string
	kind    string
	fields  func(r core.DetailRecord) []core.Field
}

var templates = map[core.Category]template{
	core.CategoryEvent: {
		heading: "🎪 Event Details",
		kind:    "Live Event",
		fields: func(r core.DetailRecord) []core.Field {
			return []core.Field{
				{Label: "📝 Description", Value: r.Description},
				{Label: "📅 Date", Value: or(r.Date, PopupDateTBD)},
				{Label: "⏰ Time", Value: or(r.Time, PopupTimeTBD)},
				addressField("📍 Location", r.Address),
			}
		},
	},
	core.CategoryRestaurant: {
		heading: "🍽️ Restaurant Details",
		kind:    "Restaurant",
		fields: func(r core.DetailRecord) []core.Field {
			return []core.Field{
				{Label: "📝 Description", Value: r.Description},
				{Label: "🍽️ Cuisine", Value: r.Cuisine},
				{Label: "📅 Status", Value: or(r.Date, PopupOpenToday)},
				{Label: "🕐 Hours", Value: or(r.Time, PopupHoursTBD)},
				addressField("📍 Address", r.Address),
			}
		},
	},
	core.CategoryAlert: {
		heading: "🚨 Alert Details",
		kind:    "Alert",
		fields: func(r core.DetailRecord) []core.Field {
			fields := []core.Field{
				{Label: "📝 Description", Value: r.Description},
				{Label: "🚨 Severity", Value: r.Severity},
				{Label: "📅 Date", Value: or(r.Date, PopupCurrent)},
				{Label: "⏰ Time", Value: or(r.Time, PopupOngoing)},
			}
			if r.Address != "" {
				fields = append(fields, addressField("📍 Location", r.Address))
			}
			return fields
		},
	},
}

// Modal builds the detail modal for a stored record. Records of an unknown
// category get a generic layout.
func Modal(r core.DetailRecord) core.Modal {
	m := core.Modal{
		RecordID: r.ID,
		Title:    r.Category.Badge() + " " + r.Name,
		Badge:    r.Category.Badge(),
		Sources:  SourceLinks(r.Website, r.Citation),
	}
	t, ok := templates[r.Category]
	if !ok {
		m.Heading = "Details"
		m.Kind = r.Category.Style().Label
		m.Fields = []core.Field{
			{Label: "📝 Description", Value: r.Description},
			addressField("📍 Location", r.Address),
		}
		return m
	}
	m.Heading = t.heading
	m.Kind = t.kind
	m.Fields = t.fields(r)
	return m
}

func addressField(label, address string) core.Field {
	f := core.Field{Label: label, Value: address, Link: AddressLink(address)}
	if address == "" {
		f.Value = "Address not available"
	}
	return f
}

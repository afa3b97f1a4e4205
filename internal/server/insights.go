package server

import (
	"fmt"
	"strings"

	"github.com/citypulse/client/pkg/core"
)

// Insights renders the markdown enrichment text for a record. The client
// formats **bold**, *italic* and blank-line paragraphs.
func Insights(r core.InsightsRequest) string {
	var b strings.Builder
	label := strings.ToLower(r.Category.Style().Label)

	fmt.Fprintf(&b, "**%s** is a %s", r.Name, label)
	if addr := strings.TrimSpace(r.Address); addr != "" && addr != "Address not specified" && addr != "Address TBD" {
		fmt.Fprintf(&b, " located at %s", addr)
	}
	b.WriteString(".")
	if d := strings.TrimSpace(r.Description); d != "" {
		fmt.Fprintf(&b, " %s", d)
	}
	b.WriteString("\n\n")

	switch r.Category {
	case core.CategoryEvent:
		b.WriteString("*Tip:* arrive early, popular events in the area fill up quickly.\n")
		b.WriteString("Check the organizer's page for last-minute changes.")
	case core.CategoryRestaurant:
		b.WriteString("*Tip:* reservations are recommended on weekends.\n")
		b.WriteString("Ask about daily specials.")
	case core.CategoryAlert:
		b.WriteString("*Advice:* allow extra travel time and follow posted detours.\n")
		b.WriteString("Conditions may change during the day.")
	default:
		b.WriteString("*Tip:* look around, there is more nearby.")
	}
	return b.String()
}

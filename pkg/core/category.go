// pkg/core/category.go
package core

// Category classifies a discovered item and selects its marker style.
type Category string

const (
	CategoryEvent      Category = "event"
	CategoryRestaurant Category = "restaurant"
	CategoryAlert      Category = "alert"
	CategoryUser       Category = "user"
)

// ResultCategories lists the categories a backend result can carry, in draw order.
var ResultCategories = []Category{CategoryEvent, CategoryRestaurant, CategoryAlert}

// Style is the visual treatment of a marker.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

var styles = map[Category]Style{
	CategoryEvent:      {Color: "#e74c3c", Icon: "♪", Label: "Event"},
	CategoryRestaurant: {Color: "#3498db", Icon: "🍽", Label: "Restaurant"},
	CategoryAlert:      {Color: "#f39c12", Icon: "⚠", Label: "Alert"},
	CategoryUser:       {Color: "#2ecc71", Icon: "●", Label: "You"},
}

// Style returns the marker style for the category. Unknown categories get a
// neutral pin.
func (c Category) Style() Style {
	if s, ok := styles[c]; ok {
		return s
	}
	return Style{Color: "#7f8c8d", Icon: "📍", Label: "Place"}
}

// Valid reports whether c is one of the result categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryEvent, CategoryRestaurant, CategoryAlert:
		return true
	}
	return false
}

// Badge is the emoji shown in titles and shared-location popups.
func (c Category) Badge() string {
	switch c {
	case CategoryEvent:
		return "🎵"
	case CategoryRestaurant:
		return "🍕"
	case CategoryAlert:
		return "⚠️"
	}
	return "📍"
}

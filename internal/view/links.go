package view

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/citypulse/client/pkg/core"
)

// Platform selects the directions deep link.
type Platform int

const (
	PlatformDesktop Platform = iota
	PlatformIOS
	PlatformAndroid
)

var (
	iosUA     = regexp.MustCompile(`iPad|iPhone|iPod`)
	androidUA = regexp.MustCompile(`Android`)
)

// PlatformFromUserAgent classifies a browser user agent.
func PlatformFromUserAgent(ua string) Platform {
	switch {
	case iosUA.MatchString(ua):
		return PlatformIOS
	case androidUA.MatchString(ua):
		return PlatformAndroid
	}
	return PlatformDesktop
}

// ParsePlatform maps a CLI flag value to a Platform.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(s) {
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	}
	return PlatformDesktop
}

const webDirections = "https://maps.google.com/maps?daddr="

// Directions is where "get directions" sends the user. Web is always set;
// Native is the app deep link tried first on mobile platforms.
type Directions struct {
	Native string
	Web    string
}

// DirectionsTo builds the directions links for a destination.
func DirectionsTo(destination string, p Platform) Directions {
	q := encodeComponent(destination)
	d := Directions{Web: webDirections + q}
	switch p {
	case PlatformIOS:
		d.Native = "maps://maps.apple.com/?daddr=" + q
	case PlatformAndroid:
		d.Native = "google.navigation:q=" + q
	}
	return d
}

// DirectionsURL builds the directions links for a record. The destination is
// the address when known, else the name.
func DirectionsURL(r core.DetailRecord, p Platform) Directions {
	dest := r.Address
	if AddressLink(dest) == "" {
		dest = r.Name
	}
	return DirectionsTo(dest, p)
}

// AddressLink returns a map search link for the address, or "" for
// placeholder and empty addresses.
func AddressLink(address string) string {
	switch address {
	case "", "Address not specified", PopupAddressTBD:
		return ""
	}
	return "https://maps.google.com/maps?q=" + encodeComponent(address)
}

// SourceLinks lists the official website and the citation. The citation is
// dropped when it points at the website.
func SourceLinks(website string, c *core.Citation) []core.Link {
	var links []core.Link
	if website != "" && website != "Website not available" {
		links = append(links, core.Link{Label: "🌐 Official Website", URL: website})
	}
	if c != nil && c.URL != "" && c.URL != "Source not available" && c.URL != website {
		title := c.Title
		if title == "" {
			title = "Source"
		}
		links = append(links, core.Link{Label: "📰 " + title, URL: c.URL, Tooltip: c.Description})
	}
	return links
}

// encodeComponent escapes s for use inside a query value, with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

package owners

import "strings"

// Display is a presentation-ready owner identity.
type Display struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// ResolveDisplay turns an owner record into a display identity with a fixed
// priority: username, then shortened address, then the fallback string.
// Pure function, safe to call without any network access.
func ResolveDisplay(rec Record, fallback string) Display {
	if rec.Username != "" {
		d := Display{Name: rec.Username}
		if rec.Address != "" {
			d.Link = "https://opensea.io/" + rec.Address
		}
		return d
	}
	if rec.Address != "" {
		return Display{
			Name: shortAddress(rec.Address),
			Link: "https://opensea.io/" + rec.Address,
		}
	}
	return Display{Name: fallback}
}

// shortAddress renders 0x1234...abcd style addresses.
func shortAddress(addr string) string {
	a := strings.ToLower(addr)
	if len(a) <= 10 {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}

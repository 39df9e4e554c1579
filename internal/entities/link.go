package entities

import "time"

const (
	// DirectSource is recorded when a click carries no referrer
	DirectSource = "direct"
	// UnknownLocation is the location placeholder stored on every click
	UnknownLocation = "Unknown"
)

// Link represents one shortened URL entry in the mappings table
type Link struct {
	LongURL   string       `json:"longURL"`
	Shortcode string       `json:"shortcode"`
	Created   time.Time    `json:"created"`
	Expiry    time.Time    `json:"expiry"`
	Clicks    int          `json:"clicks"`
	ClickData []ClickEvent `json:"clickData"`
}

// ClickEvent is one recorded resolution of an active link
type ClickEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Location  string    `json:"location"`
	UserAgent string    `json:"userAgent"`
}

// IsExpired reports whether the link has expired at the given time.
// A link whose expiry equals now is still active.
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.Expiry)
}

// RecordClick appends the event and bumps the click counter.
func (l *Link) RecordClick(event ClickEvent) {
	l.Clicks++
	l.ClickData = append(l.ClickData, event)
}

// Clone creates a deep copy of the link
func (l *Link) Clone() *Link {
	clicks := make([]ClickEvent, len(l.ClickData))
	copy(clicks, l.ClickData)

	return &Link{
		LongURL:   l.LongURL,
		Shortcode: l.Shortcode,
		Created:   l.Created,
		Expiry:    l.Expiry,
		Clicks:    l.Clicks,
		ClickData: clicks,
	}
}

// Table maps shortcodes to their links. It is persisted as a single unit.
type Table map[string]*Link

// Codes returns the set of shortcodes present in the table
func (t Table) Codes() map[string]struct{} {
	codes := make(map[string]struct{}, len(t))
	for code := range t {
		codes[code] = struct{}{}
	}
	return codes
}

// Clone creates a deep copy of the table
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for code, link := range t {
		if link == nil {
			continue
		}
		out[code] = link.Clone()
	}
	return out
}

package models

import (
	"time"

	"shortly/internal/entities"
)

// CreatedLink represents one link created by a batch
type CreatedLink struct {
	Shortcode string    `json:"shortcode"`
	LongURL   string    `json:"longURL"`
	ShortURL  string    `json:"shortURL"` // Full short URL (base URL + shortcode)
	Created   time.Time `json:"created"`
	Expiry    time.Time `json:"expiry"`
}

// ShortenResponse represents the response after shortening a batch
type ShortenResponse struct {
	Links []CreatedLink `json:"links"`
}

// FieldError is one validation failure for one entry of a batch.
// Index is -1 for errors that concern the whole batch.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned when a batch is rejected
type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

// ResolveResponse represents a redirect directive
type ResolveResponse struct {
	Status    string `json:"status"`
	Shortcode string `json:"shortcode"`
	Target    string `json:"target"`
	DelayMS   int64  `json:"delay_ms"`
	Clicks    int    `json:"clicks"`
}

// LinkStats represents the statistics of one link
type LinkStats struct {
	Shortcode    string                `json:"shortcode"`
	LongURL      string                `json:"longURL"`
	ShortURL     string                `json:"shortURL"`
	Created      time.Time             `json:"created"`
	Expiry       time.Time             `json:"expiry"`
	Clicks       int                   `json:"clicks"`
	Status       string                `json:"status"`       // active or expired
	StatusColor  string                `json:"status_color"` // success, warning or error
	TimeLeft     string                `json:"time_left"`
	ClickShare   float64               `json:"click_share"` // Percent of all clicks in the table
	RecentClicks []entities.ClickEvent `json:"recent_clicks,omitempty"`
}

// StatsSummary represents aggregate statistics over the whole table
type StatsSummary struct {
	TotalLinks   int         `json:"total_links"`
	TotalClicks  int         `json:"total_clicks"`
	ActiveLinks  int         `json:"active_links"`
	ExpiredLinks int         `json:"expired_links"`
	Links        []LinkStats `json:"links"`
}

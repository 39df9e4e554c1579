package models

import (
	"encoding/json"
	"fmt"
)

// MaxBatchSize is the number of URLs accepted in one submission
const MaxBatchSize = 5

// ShortenRequest represents the request body for shortening a batch of URLs
type ShortenRequest struct {
	URLs []EntryRequest `json:"urls" binding:"required,min=1,max=5"` // Gin validation: 1 to 5 entries
}

// EntryRequest is one URL in a batch. Validity and Shortcode are optional.
type EntryRequest struct {
	LongURL   string   `json:"longURL"`
	Validity  Validity `json:"validity,omitempty"`  // Minutes, default 30
	Shortcode string   `json:"shortcode,omitempty"` // Optional custom shortcode
}

// Validity holds the raw validity input. Clients send it either as a JSON
// number or as a string, the way form fields arrive.
type Validity string

// UnmarshalJSON accepts a string, a number or null
func (v *Validity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Validity(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("validity must be a number or string: %w", err)
	}
	*v = Validity(n.String())
	return nil
}

package domain

import "time"

// Event is a normalized local event pulled from one of the configured
// listing sources.
type Event struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Title    string    `json:"title"`
	Venue    string    `json:"venue,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	URL      string    `json:"url,omitempty"`
}

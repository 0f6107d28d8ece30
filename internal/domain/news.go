package domain

import "time"

// NewsEvent a public disclosure; only the date is significant.
type NewsEvent struct {
	Date   time.Time `json:"date"`
	Title  string    `json:"title,omitempty"`
	Source string    `json:"source,omitempty"`
}

package model

import "time"

type EventType struct {
	ID              string
	Name            string
	Slug            string
	DurationMinutes int
	Description     string
	Color           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (e EventType) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

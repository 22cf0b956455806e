package models

import "time"

// EntryColor marks the provenance of a day entry. Manual entries default to
// blue, recurring-slot entries are grey, and filler entries inherit the
// color of the default activity that produced them.
type EntryColor string

const (
	ColorManual    EntryColor = "azul"
	ColorRecurring EntryColor = "cinza"
)

// DayEntry is a concrete, dated block of logged time. Date is stored at UTC
// midnight; StartTime/EndTime are "HH:MM" wall-clock strings.
type DayEntry struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"-"`
	Date        time.Time  `db:"date" json:"date"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	Description string     `db:"description" json:"description"`
	Hours       float64    `db:"hours" json:"hours"`
	Color       EntryColor `db:"color" json:"color"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DayEntryInput is the create/update payload. Hours overrides the derived
// duration when set.
type DayEntryInput struct {
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string   `json:"start_time" validate:"required"`
	EndTime     string   `json:"end_time" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Hours       *float64 `json:"hours,omitempty"`
	Color       string   `json:"color,omitempty"`
}

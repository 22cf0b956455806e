package models

import "time"

// CustomHoliday is a user-declared non-working day merged into the computed
// national calendar by the holiday filter.
type CustomHoliday struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Date      time.Time `db:"date" json:"date"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CustomHolidayInput is the create payload.
type CustomHolidayInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required"`
}

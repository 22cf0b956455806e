package models

import "time"

// DefaultActivity is a filler activity used to pad a day's logged hours up
// to the daily target. Color doubles as the provenance tag on the entries
// the scheduler creates from it.
type DefaultActivity struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Description string    `db:"description" json:"description"`
	Color       string    `db:"color" json:"color"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultActivityInput is the create/update payload.
type DefaultActivityInput struct {
	Description string `json:"description" validate:"required"`
	Color       string `json:"color" validate:"required"`
}

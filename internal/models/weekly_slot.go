package models

import "time"

// WeeklySlot is a recurring weekly commitment (e.g. a class). Weekday uses
// 0 = Sunday. The optional StartDate/EndDate validity window bounds the days
// the slot materialises on; nil means unbounded.
type WeeklySlot struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"-"`
	Weekday     int        `db:"weekday" json:"weekday"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	Description string     `db:"description" json:"description"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AppliesTo reports whether the slot is active on the given day, checking
// the weekday and the inclusive validity window.
func (s WeeklySlot) AppliesTo(day time.Time) bool {
	if int(day.Weekday()) != s.Weekday {
		return false
	}
	if s.StartDate != nil && day.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && day.After(*s.EndDate) {
		return false
	}
	return true
}

// WeeklySlotInput is the create/update payload.
type WeeklySlotInput struct {
	Weekday     int     `json:"weekday" validate:"min=0,max=6"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	Description string  `json:"description" validate:"required"`
	StartDate   *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

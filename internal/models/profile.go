package models

import "time"

// Profile carries the scholarship metadata printed on the monthly report
// plus the weekly workload quota the scheduler fills towards. One row per
// user.
type Profile struct {
	ID                  string    `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"-"`
	Scholar             string    `db:"scholar" json:"scholar"`
	Advisor             string    `db:"advisor" json:"advisor"`
	Lab                 string    `db:"lab" json:"lab"`
	Grant               string    `db:"grant_name" json:"grant"`
	WeeklyWorkloadHours float64   `db:"weekly_workload_hours" json:"weekly_workload_hours"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileInput is the save payload.
type ProfileInput struct {
	Scholar             string  `json:"scholar" validate:"required"`
	Advisor             string  `json:"advisor" validate:"required"`
	Lab                 string  `json:"lab"`
	Grant               string  `json:"grant"`
	WeeklyWorkloadHours float64 `json:"weekly_workload_hours" validate:"gte=0"`
}

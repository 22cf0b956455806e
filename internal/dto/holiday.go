package dto

import (
	"github.com/nanoufn/bolsa-api/internal/models"
	"github.com/nanoufn/bolsa-api/pkg/holidays"
)

// HolidayCalendar is the merged year view: the computed national/state table
// plus the user's custom entries.
type HolidayCalendar struct {
	Year     int                    `json:"year"`
	Computed []holidays.Holiday     `json:"computed"`
	Custom   []models.CustomHoliday `json:"custom"`
}

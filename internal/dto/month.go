package dto

// FillBlanksRequest instructs the scheduler to top up a month.
type FillBlanksRequest struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// FillResult summarises a completed fill run.
type FillResult struct {
	Message           string   `json:"message"`
	CreatedCount      int      `json:"created_count"`
	CreatedDates      []string `json:"created_dates"`
	WeeklyTargetHours float64  `json:"weekly_target_hours"`
	MorningStartTime  string   `json:"morning_start_time"`
}

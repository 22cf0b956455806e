package dto

import "github.com/nanoufn/bolsa-api/internal/models"

// ReportDay is one working day of the assembled monthly report.
type ReportDay struct {
	Date       string  `json:"date"`
	DayLabel   string  `json:"day_label"`
	Schedule   string  `json:"schedule"`
	Activities string  `json:"activities"`
	DailyHours float64 `json:"daily_hours"`
}

// ReportData is the assembled month used by the PDF renderer and the JSON
// preview endpoint.
type ReportData struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	Scholar    string      `json:"scholar"`
	Advisor    string      `json:"advisor"`
	Lab        string      `json:"lab"`
	Grant      string      `json:"grant"`
	Days       []ReportDay `json:"days"`
	TotalHours float64     `json:"total_hours"`
}

// ReportRequest captures the async report payload.
type ReportRequest struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ReportStatus `json:"status"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ReportStatus `json:"status"`
	DownloadURL *string             `json:"download_url,omitempty"`
	Error       *string             `json:"error,omitempty"`
}

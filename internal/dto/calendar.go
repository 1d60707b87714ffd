package dto

import "github.com/noah-isme/stikes-adp-api/internal/models"

// LeaveCalendarResponse is the month view of leave occupancy.
type LeaveCalendarResponse struct {
	Month int                  `json:"month"`
	Year  int                  `json:"year"`
	Days  []models.CalendarDay `json:"days"`
}

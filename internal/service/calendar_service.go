package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type leaveOverlapLister interface {
	ListOverlapping(ctx context.Context, from, to time.Time, statuses []models.ApprovalStatus) ([]models.LeaveRequest, error)
}

// CalendarService expands the leave population into month views. The view is
// rebuilt per request; decisions never leave a stale month behind.
type CalendarService struct {
	leaves  leaveOverlapLister
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewCalendarService constructs the service.
func NewCalendarService(leaves leaveOverlapLister, metrics *MetricsService, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		leaves:  leaves,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MonthView returns the leave occupancy calendar for (month, year).
func (s *CalendarService) MonthView(ctx context.Context, month, year int) (*dto.LeaveCalendarResponse, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	// Rejected/cancelled rows are fetched too; the fold drops them so the
	// exclusion rule lives in one place.
	start := time.Now()
	records, err := s.leaves.ListOverlapping(ctx, first, last, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave records")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("calendar_leaves", time.Since(start))
	}

	return &dto.LeaveCalendarResponse{
		Month: month,
		Year:  year,
		Days:  BuildCalendar(month, year, records, s.now()),
	}, nil
}

// BuildCalendar folds leave records into the month's day buckets. Pure and
// deterministic: event order within a day follows the input record order,
// each day shows at most models.MaxCalendarEventsPerDay entries, rejected and
// cancelled records are excluded, ranges are clipped to the month, and an
// inverted range contributes zero days. The day list starts with the previous
// month's trailing days padding to the first weekday (Sunday start) and ends
// on the month's last day with no trailing padding.
func BuildCalendar(month, year int, records []models.LeaveRequest, today time.Time) []models.CalendarDay {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	daysInMonth := last.Day()

	buckets := make([][]models.CalendarEvent, daysInMonth+1)
	for _, record := range records {
		if record.Status == models.StatusRejected || record.Status == models.StatusCancelled {
			continue
		}
		from := dateOnly(record.FromDate)
		to := dateOnly(record.ToDate)
		if to.Before(from) {
			continue
		}
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}
		if to.Before(from) {
			continue
		}
		event := models.CalendarEvent{
			Label:    models.ShortDisplayName(record.FacultyName) + " (" + string(record.TypeCode) + ")",
			TypeCode: record.TypeCode,
			Color:    ColorFor(record.FacultyName),
		}
		for day := from.Day(); day <= to.Day(); day++ {
			if len(buckets[day]) >= models.MaxCalendarEventsPerDay {
				continue
			}
			buckets[day] = append(buckets[day], event)
		}
	}

	todayDate := dateOnly(today)
	days := make([]models.CalendarDay, 0, int(first.Weekday())+daysInMonth)

	prevLast := first.AddDate(0, 0, -1).Day()
	for i := int(first.Weekday()); i > 0; i-- {
		days = append(days, models.CalendarDay{
			Day:    prevLast - i + 1,
			Events: []models.CalendarEvent{},
		})
	}
	for day := 1; day <= daysInMonth; day++ {
		events := buckets[day]
		if events == nil {
			events = []models.CalendarEvent{}
		}
		days = append(days, models.CalendarDay{
			Day:            day,
			IsCurrentMonth: true,
			IsToday: todayDate.Year() == year &&
				todayDate.Month() == time.Month(month) &&
				todayDate.Day() == day,
			Events: events,
		})
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

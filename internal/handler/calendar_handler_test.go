package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/stikes-adp-api/internal/models"
	"github.com/noah-isme/stikes-adp-api/internal/service"
)

type fakeOverlapLister struct {
	records []models.LeaveRequest
	from    time.Time
	to      time.Time
}

func (f *fakeOverlapLister) ListOverlapping(_ context.Context, from, to time.Time, _ []models.ApprovalStatus) ([]models.LeaveRequest, error) {
	f.from, f.to = from, to
	return f.records, nil
}

func TestCalendarHandlerMonthRejectsNonNumeric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCalendarHandler(service.NewCalendarService(&fakeOverlapLister{}, nil, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calendar?month=june", nil)

	handler.Month(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarHandlerMonthRejectsOutOfRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCalendarHandler(service.NewCalendarService(&fakeOverlapLister{}, nil, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calendar?month=13&year=2026", nil)

	handler.Month(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarHandlerMonthSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lister := &fakeOverlapLister{records: []models.LeaveRequest{{
		FacultyName: "Dr. Asha Rao",
		TypeCode:    models.LeaveTypeCasual,
		FromDate:    time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC),
		ToDate:      time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusApproved,
	}}}
	handler := NewCalendarHandler(service.NewCalendarService(lister, nil, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/calendar?month=6&year=2026", nil)

	handler.Month(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), lister.from)
	assert.Equal(t, time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), lister.to)

	var envelope struct {
		Data struct {
			Month int                  `json:"month"`
			Year  int                  `json:"year"`
			Days  []models.CalendarDay `json:"days"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 6, envelope.Data.Month)
	// June 2026 starts on a Monday, so one padding cell precedes thirty days.
	assert.Len(t, envelope.Data.Days, 31)
	assert.Contains(t, rec.Body.String(), "Dr. Asha (CL)")
}

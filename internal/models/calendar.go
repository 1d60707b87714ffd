package models

// MaxCalendarEventsPerDay caps how many leave entries a calendar cell shows.
// Overlap beyond the cap still counts toward impact figures; it is only
// dropped from the day's display bucket.
const MaxCalendarEventsPerDay = 2

// CalendarEvent is one leave entry on a calendar day.
type CalendarEvent struct {
	Label    string        `json:"label"`
	TypeCode LeaveTypeCode `json:"typeCode"`
	Color    string        `json:"color"`
}

// CalendarDay is one cell of the month view. Days outside the target month
// (leading padding up to the first weekday) carry IsCurrentMonth=false and an
// empty event bucket.
type CalendarDay struct {
	Day            int             `json:"day"`
	IsCurrentMonth bool            `json:"isCurrentMonth"`
	IsToday        bool            `json:"isToday"`
	Events         []CalendarEvent `json:"events"`
}

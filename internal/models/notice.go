package models

import "time"

// NoticeAudience defines who can see a notice.
type NoticeAudience string

const (
	NoticeAudienceAll      NoticeAudience = "ALL"
	NoticeAudienceFaculty  NoticeAudience = "FACULTY"
	NoticeAudienceStudents NoticeAudience = "STUDENTS"
	NoticeAudienceStaff    NoticeAudience = "STAFF"
)

// NoticePriority defines ordering for notices.
type NoticePriority string

const (
	NoticePriorityLow    NoticePriority = "LOW"
	NoticePriorityNormal NoticePriority = "NORMAL"
	NoticePriorityUrgent NoticePriority = "URGENT"
)

// Notice represents a persisted notice-board row.
type Notice struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Content     string         `db:"content" json:"content"`
	Audience    NoticeAudience `db:"audience" json:"audience"`
	Priority    NoticePriority `db:"priority" json:"priority"`
	IsPinned    bool           `db:"is_pinned" json:"is_pinned"`
	PublishedAt time.Time      `db:"published_at" json:"published_at"`
	ExpiresAt   *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// NoticeFilter allows listing notices.
type NoticeFilter struct {
	Audiences     []NoticeAudience
	IncludePinned bool
	Page          int
	PageSize      int
}

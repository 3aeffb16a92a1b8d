package events

import (
	"time"
)

// Event categories. Free-text categories from manual imports are kept as-is.
const (
	CategoryClinic       = "CLINIC"
	CategoryKidsNightOut = "KIDS_NIGHT_OUT"
	CategoryOpenGym      = "OPEN_GYM"
	CategoryCamp         = "CAMP"
)

// Audit actions
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Event is the canonical, storage-ready representation of one occurrence.
// The pair (SourceGroup, SignupURL with query string stripped) or the tuple
// (SourceGroup, Date, TimeWindow, Category) identifies one logical occurrence.
type Event struct {
	ID          string
	SourceGroup string
	Title       string
	Date        time.Time
	StartDate   time.Time
	EndDate     time.Time
	TimeWindow  string
	Price       *float64 // nil means price unknown, distinct from zero
	Category    string
	SignupURL   string
	DayOfWeek   string
	AgeMin      *int
	AgeMax      *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RawListing is one item as returned by a portal listings endpoint.
// Never persisted directly.
type RawListing struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	TypeName  string          `json:"typeName"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	MinAge    *int            `json:"minAge"`
	MaxAge    *int            `json:"maxAge"`
	Price     *float64        `json:"price"`
	Schedule  []ScheduleEntry `json:"schedule"`
}

type ScheduleEntry struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// AuditEntry is an append-only record of one persistence write.
type AuditEntry struct {
	ID           string
	EventID      string
	SourceGroup  string
	Action       string // CREATE, UPDATE, DELETE
	FieldChanged string // field name or "all"
	OldValue     string
	NewValue     string
	EventTitle   string
	EventDate    time.Time
	ChangedBy    string
	BatchID      string
	ChangedAt    time.Time
}

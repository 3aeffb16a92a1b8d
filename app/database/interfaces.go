package database

import (
	"time"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
)

type EventRepository interface {
	GetEvent(id string) (*events.Event, error)
	GetEventsBySourceGroup(sourceGroup string) ([]events.Event, error)
	GetEventsInWindow(sourceGroup string, from, to *time.Time) ([]events.Event, error)
	GetEventCount() (int, error)
	GetCategoryCounts() (map[string]int, error)

	InsertEvent(ev events.Event) (string, error)
	UpdateEventFields(id string, ev events.Event) error
	UpsertEvent(ev events.Event) (string, bool, error)
	DeleteEvent(id string) error
}

type AuditRepository interface {
	Append(entry events.AuditEntry) error
	GetEntries(sourceGroup string, limit int) ([]events.AuditEntry, error)
	GetEntryCount() (int, error)
}

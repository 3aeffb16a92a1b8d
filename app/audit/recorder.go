package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/metrics"
)

// Store persists audit entries. Append-only; nothing in the reconciliation
// path ever reads entries back.
type Store interface {
	Append(entry events.AuditEntry) error
}

// Recorder writes one immutable entry per create/update/delete. It is
// fail-soft: an audit failure must not block the write it is describing, so
// failures are logged and swallowed.
type Recorder struct {
	store   Store
	actor   string
	batchID string
}

// NewRecorder returns a recorder whose entries share one batch id, so all
// writes of a single reconciliation or import run group together.
func NewRecorder(store Store, actor string) *Recorder {
	return &Recorder{
		store:   store,
		actor:   actor,
		batchID: uuid.NewString(),
	}
}

// Record appends one audit entry. fieldChanged is a field name or "all".
func (r *Recorder) Record(eventID, sourceGroup, action, fieldChanged, oldValue, newValue, title string, date time.Time) {
	entry := events.AuditEntry{
		EventID:      eventID,
		SourceGroup:  sourceGroup,
		Action:       action,
		FieldChanged: fieldChanged,
		OldValue:     oldValue,
		NewValue:     newValue,
		EventTitle:   title,
		EventDate:    date,
		ChangedBy:    r.actor,
		BatchID:      r.batchID,
		ChangedAt:    time.Now().UTC(),
	}

	if err := r.store.Append(entry); err != nil {
		metrics.AuditAppendFailures.Inc()
		slog.Error("Failed to append audit entry",
			"event_id", eventID, "action", action, "field", fieldChanged, "error", err)
	}
}

package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
)

type mockStore struct {
	entries []events.AuditEntry
	failing bool
}

func (m *mockStore) Append(entry events.AuditEntry) error {
	if m.failing {
		return fmt.Errorf("mock store failure")
	}
	m.entries = append(m.entries, entry)
	return nil
}

func TestRecorderRecord(t *testing.T) {
	store := &mockStore{}
	r := NewRecorder(store, "portal-sync")

	date := time.Date(2025, time.October, 16, 0, 0, 0, 0, time.UTC)
	r.Record("ev-1", "CAP-AVERY", events.ActionCreate, "all", "", "", "Open Gym", date)
	r.Record("ev-1", "CAP-AVERY", events.ActionUpdate, "price", "20", "25", "Open Gym", date)

	if len(store.entries) != 2 {
		t.Fatalf("appended %d entries, expected 2", len(store.entries))
	}

	first := store.entries[0]
	if first.Action != events.ActionCreate || first.FieldChanged != "all" {
		t.Errorf("first entry = %+v", first)
	}
	if first.ChangedBy != "portal-sync" {
		t.Errorf("ChangedBy = %q, expected portal-sync", first.ChangedBy)
	}
	if first.BatchID == "" {
		t.Error("BatchID is empty")
	}

	// All entries of one recorder share one batch id
	if store.entries[0].BatchID != store.entries[1].BatchID {
		t.Error("entries from the same recorder have different batch ids")
	}

	second := store.entries[1]
	if second.FieldChanged != "price" || second.OldValue != "20" || second.NewValue != "25" {
		t.Errorf("second entry = %+v", second)
	}
}

func TestRecorderFailSoft(t *testing.T) {
	store := &mockStore{failing: true}
	r := NewRecorder(store, "portal-sync")

	// Must not panic or propagate the store failure
	r.Record("ev-1", "CAP-AVERY", events.ActionDelete, "all", "", "", "Open Gym", time.Now())
}

func TestRecorderDistinctBatchIDs(t *testing.T) {
	store := &mockStore{}
	r1 := NewRecorder(store, "portal-sync")
	r2 := NewRecorder(store, "portal-sync")

	date := time.Date(2025, time.October, 16, 0, 0, 0, 0, time.UTC)
	r1.Record("ev-1", "CAP-AVERY", events.ActionCreate, "all", "", "", "A", date)
	r2.Record("ev-2", "CAP-AVERY", events.ActionCreate, "all", "", "", "B", date)

	if store.entries[0].BatchID == store.entries[1].BatchID {
		t.Error("separate recorders share a batch id")
	}
}

package database

import (
	"database/sql"
	"fmt"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
)

type auditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) AuditRepository {
	return &auditRepository{db: db}
}

// Append writes one immutable audit entry. Entries are never updated or
// deleted afterwards.
func (r *auditRepository) Append(entry events.AuditEntry) error {
	var eventDate interface{}
	if !entry.EventDate.IsZero() {
		eventDate = entry.EventDate
	}

	_, err := r.db.Exec(`
		INSERT INTO event_audit (
			event_id, source_group, action, field_changed,
			old_value, new_value, event_title, event_date,
			changed_by, batch_id, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, entry.EventID, entry.SourceGroup, entry.Action, entry.FieldChanged,
		entry.OldValue, entry.NewValue, entry.EventTitle, eventDate,
		entry.ChangedBy, entry.BatchID, entry.ChangedAt)

	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) GetEntries(sourceGroup string, limit int) ([]events.AuditEntry, error) {
	query := `
		SELECT id, event_id, source_group, action, field_changed,
		       old_value, new_value, event_title, event_date,
		       changed_by, batch_id, changed_at
		FROM event_audit`
	args := make([]interface{}, 0, 2)

	if sourceGroup != "" {
		args = append(args, sourceGroup)
		query += fmt.Sprintf(" WHERE source_group = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY changed_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	defer rows.Close()

	var entries []events.AuditEntry
	for rows.Next() {
		var entry events.AuditEntry
		var eventDate sql.NullTime
		err := rows.Scan(
			&entry.ID, &entry.EventID, &entry.SourceGroup, &entry.Action,
			&entry.FieldChanged, &entry.OldValue, &entry.NewValue,
			&entry.EventTitle, &eventDate, &entry.ChangedBy, &entry.BatchID,
			&entry.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		if eventDate.Valid {
			entry.EventDate = eventDate.Time
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) GetEntryCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM event_audit").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get audit entry count: %w", err)
	}
	return count, nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
)

type eventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, source_group, title, event_date, start_date, end_date,
	time_window, price, category, signup_url, day_of_week, age_min, age_max,
	created_at, updated_at`

func (r *eventRepository) GetEvent(id string) (*events.Event, error) {
	row := r.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &ev, nil
}

func (r *eventRepository) GetEventsBySourceGroup(sourceGroup string) ([]events.Event, error) {
	rows, err := r.db.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE source_group = $1
		ORDER BY event_date, time_window
	`, sourceGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *eventRepository) GetEventsInWindow(sourceGroup string, from, to *time.Time) ([]events.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if sourceGroup != "" {
		args = append(args, sourceGroup)
		query += fmt.Sprintf(" AND source_group = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND event_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND event_date <= $%d", len(args))
	}
	query += " ORDER BY event_date, time_window"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events in window: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *eventRepository) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

func (r *eventRepository) GetCategoryCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT category, COUNT(*) FROM events GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}
	return counts, nil
}

func (r *eventRepository) InsertEvent(ev events.Event) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO events (
			source_group, title, event_date, start_date, end_date,
			time_window, price, category, signup_url, day_of_week,
			age_min, age_max
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, ev.SourceGroup, ev.Title, ev.Date, ev.StartDate, ev.EndDate,
		ev.TimeWindow, nullFloat(ev.Price), ev.Category, ev.SignupURL, ev.DayOfWeek,
		nullInt(ev.AgeMin), nullInt(ev.AgeMax)).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

// UpdateEventFields overwrites the mutable fields of a stored event.
func (r *eventRepository) UpdateEventFields(id string, ev events.Event) error {
	_, err := r.db.Exec(`
		UPDATE events
		SET title = $2, event_date = $3, start_date = $4, end_date = $5,
		    time_window = $6, price = $7, day_of_week = $8, updated_at = NOW()
		WHERE id = $1
	`, id, ev.Title, ev.Date, ev.StartDate, ev.EndDate,
		ev.TimeWindow, nullFloat(ev.Price), ev.DayOfWeek)

	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// UpsertEvent inserts or overwrites on the (source_group, signup_url)
// identity. The bool reports whether a new row was created; xmax is zero only
// for freshly inserted rows.
func (r *eventRepository) UpsertEvent(ev events.Event) (string, bool, error) {
	var id string
	var created bool
	err := r.db.QueryRow(`
		INSERT INTO events (
			source_group, title, event_date, start_date, end_date,
			time_window, price, category, signup_url, day_of_week,
			age_min, age_max
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (source_group, signup_url) DO UPDATE SET
			title = EXCLUDED.title,
			event_date = EXCLUDED.event_date,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			time_window = EXCLUDED.time_window,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			day_of_week = EXCLUDED.day_of_week,
			age_min = EXCLUDED.age_min,
			age_max = EXCLUDED.age_max,
			updated_at = NOW()
		RETURNING id, (xmax = 0)
	`, ev.SourceGroup, ev.Title, ev.Date, ev.StartDate, ev.EndDate,
		ev.TimeWindow, nullFloat(ev.Price), ev.Category, ev.SignupURL, ev.DayOfWeek,
		nullInt(ev.AgeMin), nullInt(ev.AgeMax)).Scan(&id, &created)

	if err != nil {
		return "", false, fmt.Errorf("failed to upsert event: %w", err)
	}
	return id, created, nil
}

func (r *eventRepository) DeleteEvent(id string) error {
	_, err := r.db.Exec("DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var ev events.Event
	var price sql.NullFloat64
	var ageMin, ageMax sql.NullInt64

	err := row.Scan(
		&ev.ID, &ev.SourceGroup, &ev.Title, &ev.Date, &ev.StartDate, &ev.EndDate,
		&ev.TimeWindow, &price, &ev.Category, &ev.SignupURL, &ev.DayOfWeek,
		&ageMin, &ageMax, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return ev, err
	}

	if price.Valid {
		p := price.Float64
		ev.Price = &p
	}
	if ageMin.Valid {
		a := int(ageMin.Int64)
		ev.AgeMin = &a
	}
	if ageMax.Valid {
		a := int(ageMax.Int64)
		ev.AgeMax = &a
	}
	return ev, nil
}

func collectEvents(rows *sql.Rows) ([]events.Event, error) {
	var out []events.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return out, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

package events

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldChange is one field-level diff between a stored event and a candidate.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// EventUpdate routes one matched candidate to the update bucket.
type EventUpdate struct {
	ExistingID string
	Existing   Event
	Candidate  Event
	Changes    []FieldChange
}

// ReconcileResult partitions the deduplicated batch exactly: no candidate
// appears in more than one bucket.
type ReconcileResult struct {
	ToCreate        []Event
	ToUpdate        []EventUpdate
	Unchanged       []Event
	BatchDuplicates int
}

type Reconciler struct{}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Run classifies a batch of normalized candidates against the stored snapshot
// for the affected window. Step order matters: intra-batch dedup, then
// matching, then field diff, then multi-day camp consolidation of the
// new-event bucket.
func (r *Reconciler) Run(batch []Event, existing []Event) *ReconcileResult {
	deduped, duplicates := Dedup(batch)

	result := &ReconcileResult{BatchDuplicates: duplicates}

	// Two independent lookup indexes, consulted in fixed priority order.
	// The URL may carry session-irrelevant query parameters while the
	// composite tuple is the human-meaningful identity.
	byURL := make(map[string]Event, len(existing))
	byKey := make(map[string]Event, len(existing))
	for _, ex := range existing {
		byURL[urlKey(ex)] = ex
		byKey[CompositeKey(ex)] = ex
	}

	for _, candidate := range deduped {
		match, ok := byURL[urlKey(candidate)]
		if !ok {
			match, ok = byKey[CompositeKey(candidate)]
		}

		if !ok {
			result.ToCreate = append(result.ToCreate, candidate)
			continue
		}

		changes := diffFields(match, candidate)
		if len(changes) == 0 {
			result.Unchanged = append(result.Unchanged, candidate)
			continue
		}
		result.ToUpdate = append(result.ToUpdate, EventUpdate{
			ExistingID: match.ID,
			Existing:   match,
			Candidate:  candidate,
			Changes:    changes,
		})
	}

	result.ToCreate = consolidateCamps(result.ToCreate)

	return result
}

// Dedup drops later occurrences of the same composite key within one batch.
// First occurrence wins. Running it on its own output is a no-op.
func Dedup(batch []Event) ([]Event, int) {
	seen := make(map[string]bool, len(batch))
	deduped := make([]Event, 0, len(batch))
	duplicates := 0

	for _, ev := range batch {
		key := CompositeKey(ev)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		deduped = append(deduped, ev)
	}

	return deduped, duplicates
}

// CompositeKey is the fallback identity tuple. Note the display time string
// participates in the key, so a cosmetic formatting change registers as a
// new event rather than a changed one (preserved source behavior).
func CompositeKey(ev Event) string {
	return strings.Join([]string{
		ev.SourceGroup,
		ev.Date.Format("2006-01-02"),
		ev.TimeWindow,
		ev.Category,
	}, "|")
}

// StripQuery canonicalizes a signup URL for identity comparison.
func StripQuery(url string) string {
	if i := strings.Index(url, "?"); i >= 0 {
		return url[:i]
	}
	return url
}

func urlKey(ev Event) string {
	return ev.SourceGroup + "|" + StripQuery(ev.SignupURL)
}

// diffFields compares the fixed set of mutable fields. A field is changed
// only if the values differ and it is not the case that both are absent.
func diffFields(existing, candidate Event) []FieldChange {
	var changes []FieldChange

	if !priceEqual(existing.Price, candidate.Price) {
		changes = append(changes, FieldChange{
			Field:    "price",
			OldValue: FormatPrice(existing.Price),
			NewValue: FormatPrice(candidate.Price),
		})
	}

	if existing.TimeWindow != candidate.TimeWindow {
		changes = append(changes, FieldChange{
			Field:    "time_window",
			OldValue: existing.TimeWindow,
			NewValue: candidate.TimeWindow,
		})
	}

	existingDate := existing.Date.Format("2006-01-02")
	candidateDate := candidate.Date.Format("2006-01-02")
	if existingDate != candidateDate {
		changes = append(changes, FieldChange{
			Field:    "date",
			OldValue: existingDate,
			NewValue: candidateDate,
		})
	}

	if existing.Title != candidate.Title {
		changes = append(changes, FieldChange{
			Field:    "title",
			OldValue: existing.Title,
			NewValue: candidate.Title,
		})
	}

	return changes
}

func priceEqual(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// FormatPrice serializes a price for audit values. Absent prices serialize
// to the empty string, never "0".
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// consolidateCamps merges groups of new single-day CAMP candidates that share
// a source group and base title into one ranged record. Groups of size 1
// pass through untouched; consolidation only ever shrinks the create bucket.
func consolidateCamps(creates []Event) []Event {
	groups := make(map[string][]int)
	for i, ev := range creates {
		if ev.Category != CategoryCamp {
			continue
		}
		key := ev.SourceGroup + "|" + strings.ToLower(CampBaseName(ev.Title))
		groups[key] = append(groups[key], i)
	}

	consolidated := make(map[int]Event)
	discard := make(map[int]bool)
	for _, indexes := range groups {
		if len(indexes) < 2 {
			continue
		}

		members := make([]Event, 0, len(indexes))
		for _, i := range indexes {
			members = append(members, creates[i])
		}
		sort.Slice(members, func(a, b int) bool {
			return members[a].Date.Before(members[b].Date)
		})

		first := members[0]
		last := members[len(members)-1]

		merged := first
		merged.Date = first.Date
		merged.StartDate = first.Date
		merged.EndDate = last.Date
		merged.DayOfWeek = first.Date.Weekday().String()
		merged.Title = CampBaseName(first.Title) + " - " + FormatDateRange(first.Date, last.Date)

		consolidated[indexes[0]] = merged
		for _, i := range indexes[1:] {
			discard[i] = true
		}
	}

	out := make([]Event, 0, len(creates))
	for i, ev := range creates {
		if discard[i] {
			continue
		}
		if merged, ok := consolidated[i]; ok {
			out = append(out, merged)
			continue
		}
		out = append(out, ev)
	}
	return out
}

// CampBaseName truncates a camp title at its first delimiter so per-day
// titles like "Winter Camp - Dec 22, 2025" group together.
func CampBaseName(title string) string {
	if i := strings.IndexAny(title, "-–(:|"); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

// FormatDateRange renders "Oct 16-18, 2025" within one month and
// "Oct 30, 2025 - Nov 2, 2025" across months or years.
func FormatDateRange(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return fmt.Sprintf("%s %d-%d, %d", start.Format("Jan"), start.Day(), end.Day(), start.Year())
	}
	return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
}

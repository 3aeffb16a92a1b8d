package events

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func makeEvent(sourceGroup, title string, d time.Time, timeWindow, category, signupURL string) Event {
	return Event{
		SourceGroup: sourceGroup,
		Title:       title,
		Date:        d,
		StartDate:   d,
		EndDate:     d,
		TimeWindow:  timeWindow,
		Category:    category,
		SignupURL:   signupURL,
		DayOfWeek:   d.Weekday().String(),
	}
}

func TestDedup(t *testing.T) {
	d := date(2025, time.October, 16)
	batch := []Event{
		makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym, "https://x/a/camp-details/1"),
		makeEvent("CAP-AVERY", "Open Gym Again", d, "6:00 PM - 8:00 PM", CategoryOpenGym, "https://x/a/camp-details/2"),
		makeEvent("CAP-AVERY", "Clinic", d, "6:00 PM - 8:00 PM", CategoryClinic, "https://x/a/camp-details/3"),
	}

	deduped, duplicates := Dedup(batch)
	if len(deduped) != 2 {
		t.Fatalf("Dedup returned %d events, expected 2", len(deduped))
	}
	if duplicates != 1 {
		t.Errorf("duplicates = %d, expected 1", duplicates)
	}
	// First occurrence wins
	if deduped[0].Title != "Open Gym" {
		t.Errorf("first survivor = %q, expected first occurrence", deduped[0].Title)
	}

	// Idempotent on its own output
	again, duplicates := Dedup(deduped)
	if len(again) != 2 || duplicates != 0 {
		t.Errorf("Dedup on deduped output: %d events, %d duplicates", len(again), duplicates)
	}
}

func TestCompositeKey(t *testing.T) {
	d := date(2025, time.October, 16)
	ev := makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym, "")
	expected := "CAP-AVERY|2025-10-16|6:00 PM - 8:00 PM|OPEN_GYM"
	if got := CompositeKey(ev); got != expected {
		t.Errorf("CompositeKey() = %q, expected %q", got, expected)
	}
}

func TestStripQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://p/x/camp-details/42?typeId=7", "https://p/x/camp-details/42"},
		{"https://p/x/camp-details/42", "https://p/x/camp-details/42"},
		{"https://p/x/camp-details/42?a=1&b=2", "https://p/x/camp-details/42"},
	}
	for _, tt := range tests {
		if got := StripQuery(tt.input); got != tt.expected {
			t.Errorf("StripQuery(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestReconcilerMatchByURLIgnoresQuery(t *testing.T) {
	r := NewReconciler()
	d := date(2025, time.October, 16)

	existing := makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym,
		"https://p/x/camp-details/42?typeId=7")
	existing.ID = "ev-1"

	candidate := makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym,
		"https://p/x/camp-details/42?typeId=9&x=1")

	result := r.Run([]Event{candidate}, []Event{existing})
	if len(result.ToCreate) != 0 {
		t.Errorf("ToCreate = %d, expected 0 (URL match despite query diff)", len(result.ToCreate))
	}
	if len(result.Unchanged) != 1 {
		t.Errorf("Unchanged = %d, expected 1", len(result.Unchanged))
	}
}

func TestReconcilerMatchByCompositeKey(t *testing.T) {
	r := NewReconciler()
	d := date(2025, time.October, 16)

	// Different URLs, same identity tuple
	existing := makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym,
		"https://p/x/camp-details/42")
	existing.ID = "ev-1"
	candidate := makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym,
		"https://p/x/camp-details/99")

	result := r.Run([]Event{candidate}, []Event{existing})
	if len(result.ToCreate) != 0 {
		t.Errorf("ToCreate = %d, expected 0 (composite key match)", len(result.ToCreate))
	}
	if len(result.Unchanged) != 1 {
		t.Errorf("Unchanged = %d, expected 1", len(result.Unchanged))
	}
}

func TestReconcilerPartition(t *testing.T) {
	r := NewReconciler()
	d := date(2025, time.October, 16)
	price1, price2 := 20.0, 25.0

	existingSame := makeEvent("CAP-AVERY", "Clinic", d, "5:00 PM - 6:00 PM", CategoryClinic,
		"https://p/x/camp-details/1")
	existingSame.ID = "ev-1"
	existingSame.Price = &price1

	existingChanged := makeEvent("CAP-AVERY", "Open Gym", d, "7:00 PM - 9:00 PM", CategoryOpenGym,
		"https://p/x/camp-details/2")
	existingChanged.ID = "ev-2"
	existingChanged.Price = &price1

	candSame := existingSame
	candSame.ID = ""

	candChanged := existingChanged
	candChanged.ID = ""
	candChanged.Price = &price2

	candNew := makeEvent("CAP-AVERY", "Kids Night Out", d, "6:00 PM - 9:00 PM", CategoryKidsNightOut,
		"https://p/x/camp-details/3")

	result := r.Run([]Event{candSame, candChanged, candNew},
		[]Event{existingSame, existingChanged})

	if len(result.ToCreate) != 1 || len(result.ToUpdate) != 1 || len(result.Unchanged) != 1 {
		t.Fatalf("partition = create:%d update:%d unchanged:%d, expected 1/1/1",
			len(result.ToCreate), len(result.ToUpdate), len(result.Unchanged))
	}
	if result.ToCreate[0].Title != "Kids Night Out" {
		t.Errorf("created event = %q", result.ToCreate[0].Title)
	}

	update := result.ToUpdate[0]
	if update.ExistingID != "ev-2" {
		t.Errorf("update.ExistingID = %q, expected ev-2", update.ExistingID)
	}
	if len(update.Changes) != 1 {
		t.Fatalf("update.Changes = %d, expected 1", len(update.Changes))
	}
	if update.Changes[0].Field != "price" || update.Changes[0].OldValue != "20" || update.Changes[0].NewValue != "25" {
		t.Errorf("price change = %+v", update.Changes[0])
	}
}

func TestDiffFieldsPriceNilHandling(t *testing.T) {
	d := date(2025, time.October, 16)
	base := makeEvent("CAP-AVERY", "Clinic", d, "5:00 PM - 6:00 PM", CategoryClinic, "")

	// nil vs nil is not a change
	existing := base
	candidate := base
	if changes := diffFields(existing, candidate); len(changes) != 0 {
		t.Errorf("nil/nil price diff = %+v, expected none", changes)
	}

	// nil -> value is a change with empty old value
	price := 10.0
	candidate.Price = &price
	changes := diffFields(existing, candidate)
	if len(changes) != 1 {
		t.Fatalf("nil->10 diff count = %d, expected 1", len(changes))
	}
	if changes[0].OldValue != "" || changes[0].NewValue != "10" {
		t.Errorf("nil->10 change = %+v", changes[0])
	}

	// value -> nil is also a change
	existing.Price = &price
	candidate.Price = nil
	changes = diffFields(existing, candidate)
	if len(changes) != 1 || changes[0].OldValue != "10" || changes[0].NewValue != "" {
		t.Errorf("10->nil change = %+v", changes)
	}
}

func TestDiffFieldsMultiple(t *testing.T) {
	d := date(2025, time.October, 16)
	existing := makeEvent("CAP-AVERY", "Open Gym", d, "6:00 PM - 8:00 PM", CategoryOpenGym, "")
	candidate := makeEvent("CAP-AVERY", "Open Gym Night", date(2025, time.October, 17), "7:00 PM - 9:00 PM", CategoryOpenGym, "")

	changes := diffFields(existing, candidate)
	if len(changes) != 3 {
		t.Fatalf("diff count = %d, expected 3 (time_window, date, title)", len(changes))
	}

	fields := make(map[string]FieldChange)
	for _, c := range changes {
		fields[c.Field] = c
	}
	if c, ok := fields["date"]; !ok || c.OldValue != "2025-10-16" || c.NewValue != "2025-10-17" {
		t.Errorf("date change = %+v", fields["date"])
	}
	if _, ok := fields["time_window"]; !ok {
		t.Error("missing time_window change")
	}
	if _, ok := fields["title"]; !ok {
		t.Error("missing title change")
	}
}

func TestConsolidateCamps(t *testing.T) {
	r := NewReconciler()

	batch := []Event{
		makeEvent("CAP-AVERY", "Winter Camp - Day 1", date(2025, time.October, 16), "9:00 AM - 3:00 PM", CategoryCamp, "https://p/x/camp-details/1"),
		makeEvent("CAP-AVERY", "Winter Camp - Day 2", date(2025, time.October, 17), "9:00 AM - 3:00 PM", CategoryCamp, "https://p/x/camp-details/2"),
		makeEvent("CAP-AVERY", "Winter Camp - Day 3", date(2025, time.October, 18), "9:00 AM - 3:00 PM", CategoryCamp, "https://p/x/camp-details/3"),
		makeEvent("CAP-AVERY", "Open Gym", date(2025, time.October, 16), "6:00 PM - 8:00 PM", CategoryOpenGym, "https://p/x/camp-details/4"),
	}

	result := r.Run(batch, nil)
	if len(result.ToCreate) != 2 {
		t.Fatalf("ToCreate = %d, expected 2 (merged camp + open gym)", len(result.ToCreate))
	}

	merged := result.ToCreate[0]
	if merged.Title != "Winter Camp - Oct 16-18, 2025" {
		t.Errorf("merged title = %q, expected %q", merged.Title, "Winter Camp - Oct 16-18, 2025")
	}
	if !merged.StartDate.Equal(date(2025, time.October, 16)) {
		t.Errorf("merged StartDate = %v", merged.StartDate)
	}
	if !merged.EndDate.Equal(date(2025, time.October, 18)) {
		t.Errorf("merged EndDate = %v", merged.EndDate)
	}
	if merged.DayOfWeek != "Thursday" {
		t.Errorf("merged DayOfWeek = %q, expected Thursday", merged.DayOfWeek)
	}
}

func TestConsolidateCampsSingletonUntouched(t *testing.T) {
	r := NewReconciler()

	ev := makeEvent("CAP-AVERY", "Winter Camp - Day 1", date(2025, time.October, 16), "9:00 AM - 3:00 PM", CategoryCamp, "https://p/x/camp-details/1")
	result := r.Run([]Event{ev}, nil)
	if len(result.ToCreate) != 1 {
		t.Fatalf("ToCreate = %d, expected 1", len(result.ToCreate))
	}
	if result.ToCreate[0].Title != "Winter Camp - Day 1" {
		t.Errorf("singleton title = %q, expected untouched", result.ToCreate[0].Title)
	}
}

func TestConsolidateCampsDifferentSourceGroups(t *testing.T) {
	r := NewReconciler()

	batch := []Event{
		makeEvent("CAP-AVERY", "Winter Camp - Day 1", date(2025, time.October, 16), "9:00 AM - 3:00 PM", CategoryCamp, "https://p/a/camp-details/1"),
		makeEvent("CAP-CEDAR", "Winter Camp - Day 1", date(2025, time.October, 16), "9:00 AM - 3:00 PM", CategoryCamp, "https://p/b/camp-details/1"),
	}

	result := r.Run(batch, nil)
	if len(result.ToCreate) != 2 {
		t.Errorf("ToCreate = %d, expected 2 (no cross-group merge)", len(result.ToCreate))
	}
}

func TestCampBaseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Winter Camp - Day 1", "Winter Camp"},
		{"Winter Camp (PM)", "Winter Camp"},
		{"Winter Camp: Session A", "Winter Camp"},
		{"Winter Camp | Full Day", "Winter Camp"},
		{"Winter Camp – Day 1", "Winter Camp"},
		{"Winter Camp", "Winter Camp"},
	}
	for _, tt := range tests {
		if got := CampBaseName(tt.input); got != tt.expected {
			t.Errorf("CampBaseName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatDateRange(t *testing.T) {
	same := FormatDateRange(date(2025, time.October, 16), date(2025, time.October, 18))
	if same != "Oct 16-18, 2025" {
		t.Errorf("same-month range = %q, expected %q", same, "Oct 16-18, 2025")
	}

	cross := FormatDateRange(date(2025, time.October, 30), date(2025, time.November, 2))
	if cross != "Oct 30, 2025 - Nov 2, 2025" {
		t.Errorf("cross-month range = %q, expected %q", cross, "Oct 30, 2025 - Nov 2, 2025")
	}

	crossYear := FormatDateRange(date(2025, time.December, 29), date(2026, time.January, 2))
	if crossYear != "Dec 29, 2025 - Jan 2, 2026" {
		t.Errorf("cross-year range = %q, expected %q", crossYear, "Dec 29, 2025 - Jan 2, 2026")
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(nil); got != "" {
		t.Errorf("FormatPrice(nil) = %q, expected empty", got)
	}
	p := 45.5
	if got := FormatPrice(&p); got != "45.5" {
		t.Errorf("FormatPrice(45.5) = %q", got)
	}
	p = 45.0
	if got := FormatPrice(&p); got != "45" {
		t.Errorf("FormatPrice(45) = %q", got)
	}
}

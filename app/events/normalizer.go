package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

// DefaultTimeWindow is used when a listing carries no schedule entries.
const DefaultTimeWindow = "All Day"

// UnknownSlug is substituted into signup URLs when no portal slug could be
// resolved. Such URLs are non-actionable but the record is still created.
const UnknownSlug = "UNKNOWN"

type Normalizer struct {
	publicHost string
}

func NewNormalizer(publicHost string) *Normalizer {
	return &Normalizer{publicHost: publicHost}
}

// Run maps one raw portal listing into a canonical event. It fails only when
// the source date cannot be parsed into a valid calendar date.
func (n *Normalizer) Run(raw RawListing, sourceGroup, portalSlug string) (Event, error) {
	date, err := ParseEventDate(raw.StartDate)
	if err != nil {
		return Event{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("unparseable date %q", raw.StartDate)}
	}

	endDate := date
	if raw.EndDate != "" {
		if parsed, err := ParseEventDate(raw.EndDate); err == nil && parsed.After(date) {
			endDate = parsed
		}
	}

	ev := Event{
		SourceGroup: sourceGroup,
		Title:       CleanTitle(raw.Name),
		Date:        date,
		StartDate:   date,
		EndDate:     endDate,
		TimeWindow:  timeWindow(raw.Schedule),
		Price:       raw.Price,
		Category:    InferCategory(raw.TypeName + " " + raw.Name),
		SignupURL:   BuildSignupURL(n.publicHost, portalSlug, raw.ID),
		DayOfWeek:   date.Weekday().String(),
		AgeMin:      raw.MinAge,
		AgeMax:      raw.MaxAge,
	}

	return ev, nil
}

// InferCategory classifies free-text type/name text by ordered keyword match.
// KNO is checked before CAMP so a "Kids Night Out Camp" title still resolves
// to KIDS_NIGHT_OUT.
func InferCategory(text string) string {
	upper := strings.ToUpper(text)

	switch {
	case strings.Contains(upper, "KIDS NIGHT OUT") || strings.Contains(upper, "KNO"):
		return CategoryKidsNightOut
	case strings.Contains(upper, "CLINIC"):
		return CategoryClinic
	case strings.Contains(upper, "OPEN GYM"):
		return CategoryOpenGym
	case strings.Contains(upper, "CAMP") || strings.Contains(upper, "SCHOOL YEAR"):
		return CategoryCamp
	default:
		return CategoryOpenGym
	}
}

// BuildSignupURL synthesizes the canonical public signup link for one item.
func BuildSignupURL(publicHost, portalSlug string, itemID int64) string {
	if portalSlug == "" {
		portalSlug = UnknownSlug
	}
	return fmt.Sprintf("https://%s/%s/camp-details/%d", publicHost, portalSlug, itemID)
}

// CleanTitle collapses repeated whitespace and trims. Portal titles arrive
// with inconsistent unicode composition, so NFC-normalize first.
func CleanTitle(title string) string {
	return strings.Join(strings.Fields(norm.NFC.String(title)), " ")
}

// ParseEventDate parses a source date string. Strict ISO first, then the
// lenient parser for the free-form formats portals occasionally emit.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func timeWindow(schedule []ScheduleEntry) string {
	if len(schedule) == 0 {
		return DefaultTimeWindow
	}
	first := schedule[0]
	if first.StartTime == "" || first.EndTime == "" {
		return DefaultTimeWindow
	}
	return first.StartTime + " - " + first.EndTime
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/audit"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/database"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/metrics"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/portal"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/source"
)

// SyncPortalTask crawls one portal's listings, normalizes them, reconciles
// the batch against the stored snapshot for the source group, and writes the
// outcome plus audit entries.
type SyncPortalTask struct {
	Task
	PortalConfig *portal.Config
	crawler      *source.Crawler
	normalizer   *events.Normalizer
	reconciler   *events.Reconciler
	eventRepo    database.EventRepository
	auditRepo    database.AuditRepository
}

func NewSyncPortalTask(portalName string, portalConfig *portal.Config, crawler *source.Crawler,
	normalizer *events.Normalizer, reconciler *events.Reconciler,
	eventRepo database.EventRepository, auditRepo database.AuditRepository) *SyncPortalTask {
	return &SyncPortalTask{
		Task:         NewTask(TaskTypeSyncPortal, portalName),
		PortalConfig: portalConfig,
		crawler:      crawler,
		normalizer:   normalizer,
		reconciler:   reconciler,
		eventRepo:    eventRepo,
		auditRepo:    auditRepo,
	}
}

func (t *SyncPortalTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.PortalConfig.Settings.Enabled {
		slog.Debug("Portal disabled, skipping", "portal", t.PortalName)
		return nil
	}

	listings, err := t.crawler.CollectListings(ctx, t.PortalConfig.Portal, t.PortalConfig.Settings.ProgramFilters)
	if err != nil {
		return fmt.Errorf("failed to collect listings: %w", err)
	}

	batch := make([]events.Event, 0, len(listings))
	invalid := 0
	for _, raw := range listings {
		ev, err := t.normalizer.Run(raw, t.PortalConfig.SourceGroup, t.PortalConfig.Portal)
		if err != nil {
			slog.Warn("Skipping listing that failed normalization",
				"portal", t.PortalName, "item", raw.ID, "error", err)
			invalid++
			continue
		}
		batch = append(batch, ev)
	}

	existing, err := t.eventRepo.GetEventsBySourceGroup(t.PortalConfig.SourceGroup)
	if err != nil {
		return fmt.Errorf("failed to load stored events: %w", err)
	}

	result := t.reconciler.Run(batch, existing)

	recorder := audit.NewRecorder(t.auditRepo, "portal-sync")
	group := t.PortalConfig.SourceGroup

	created := 0
	for _, ev := range result.ToCreate {
		id, err := t.eventRepo.InsertEvent(ev)
		if err != nil {
			slog.Error("Failed to insert event", "portal", t.PortalName, "title", ev.Title, "error", err)
			continue
		}
		recorder.Record(id, ev.SourceGroup, events.ActionCreate, "all", "", ev.Title, ev.Title, ev.Date)
		metrics.EventsCreated.WithLabelValues(group).Inc()
		created++
	}

	updated := 0
	for _, upd := range result.ToUpdate {
		if err := t.eventRepo.UpdateEventFields(upd.ExistingID, upd.Candidate); err != nil {
			slog.Error("Failed to update event", "portal", t.PortalName, "id", upd.ExistingID, "error", err)
			continue
		}
		for _, change := range upd.Changes {
			recorder.Record(upd.ExistingID, upd.Candidate.SourceGroup, events.ActionUpdate,
				change.Field, change.OldValue, change.NewValue, upd.Candidate.Title, upd.Candidate.Date)
		}
		metrics.EventsUpdated.WithLabelValues(group).Inc()
		updated++
	}

	metrics.EventsUnchanged.WithLabelValues(group).Add(float64(len(result.Unchanged)))
	metrics.BatchDuplicates.WithLabelValues(group).Add(float64(result.BatchDuplicates))

	slog.Info("Task completed",
		"type", "SyncPortal",
		"portal", t.PortalName,
		"duration", t.GetDuration(),
		"listings", len(listings),
		"invalid", invalid,
		"batch_duplicates", result.BatchDuplicates,
		"created", created,
		"updated", updated,
		"unchanged", len(result.Unchanged))

	return nil
}

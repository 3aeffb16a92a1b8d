package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/audit"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/database"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/portal"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/source"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/tasks"
)

type Handler struct {
	eventRepo      database.EventRepository
	auditRepo      database.AuditRepository
	crawler        *source.Crawler
	paginator      *source.Paginator
	normalizer     *events.Normalizer
	reconciler     *events.Reconciler
	configCache    *portal.ConfigCache
	scheduler      tasks.TaskSchedulerInterface
	serviceRoleKey string
}

func NewHandler(eventRepo database.EventRepository, auditRepo database.AuditRepository,
	crawler *source.Crawler, paginator *source.Paginator, normalizer *events.Normalizer,
	reconciler *events.Reconciler, configCache *portal.ConfigCache,
	scheduler tasks.TaskSchedulerInterface, serviceRoleKey string) *Handler {
	return &Handler{
		eventRepo:      eventRepo,
		auditRepo:      auditRepo,
		crawler:        crawler,
		paginator:      paginator,
		normalizer:     normalizer,
		reconciler:     reconciler,
		configCache:    configCache,
		scheduler:      scheduler,
		serviceRoleKey: serviceRoleKey,
	}
}

// CollectLinks walks the requested portals and returns discovered signup
// links. Per-portal failures are isolated inside the crawler and never
// produce a non-200 here.
func (h *Handler) CollectLinks(c *gin.Context) {
	var req CollectLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.SourceIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_ids is required"})
		return
	}

	result := h.crawler.CollectLinks(c.Request.Context(), req.SourceIDs, req.ProgramFilters)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     result.TotalCount,
		"links":     result.AllLinks,
		"by_portal": result.ByPortal,
	})
}

// MergePages fetches every page behind a listings URL and returns the merged
// payload.
func (h *Handler) MergePages(c *gin.Context) {
	var req MergePagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.URL == "" || !source.IsListingURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must point at a listings endpoint"})
		return
	}

	merged, pages, err := h.paginator.Run(c.Request.Context(), req.URL)
	if err != nil {
		slog.Error("Page merge failed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to merge pages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"merged":  merged,
		"pages":   pages,
	})
}

// ImportEvents validates and upserts a pasted batch on the
// (source_group, signup_url) identity, recording one audit entry per write.
func (h *Handler) ImportEvents(c *gin.Context) {
	if h.serviceRoleKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Service role key is not configured"})
		return
	}

	var req ImportEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "events is required"})
		return
	}

	batch := make([]events.Event, 0, len(req.Events))
	for i, item := range req.Events {
		ev, err := toEvent(item)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("item %d: %v", i+1, err)})
			return
		}
		batch = append(batch, ev)
	}

	recorder := audit.NewRecorder(h.auditRepo, "bulk-import")

	inserted := 0
	for _, ev := range batch {
		id, created, err := h.eventRepo.UpsertEvent(ev)
		if err != nil {
			slog.Error("Import upsert failed", "source_group", ev.SourceGroup, "url", ev.SignupURL, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store events"})
			return
		}
		if created {
			recorder.Record(id, ev.SourceGroup, events.ActionCreate, "all", "", ev.Title, ev.Title, ev.Date)
		} else {
			recorder.Record(id, ev.SourceGroup, events.ActionUpdate, "all", "", ev.Title, ev.Title, ev.Date)
		}
		inserted++
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "inserted": inserted})
}

func (h *Handler) GetEvents(c *gin.Context) {
	sourceGroup := c.Query("source_group")

	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		to = &t
	}

	stored, err := h.eventRepo.GetEventsInWindow(sourceGroup, from, to)
	if err != nil {
		slog.Error("Database error", "operation", "get_events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(stored))
	for _, ev := range stored {
		out = append(out, eventJSON(ev))
	}

	c.JSON(http.StatusOK, gin.H{"events": out, "total": len(out)})
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing event id"})
		return
	}

	ev, err := h.eventRepo.GetEvent(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_event", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if err := h.eventRepo.DeleteEvent(id); err != nil {
		slog.Error("Database error", "operation", "delete_event", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	recorder := audit.NewRecorder(h.auditRepo, "api-delete")
	recorder.Record(id, ev.SourceGroup, events.ActionDelete, "all", ev.Title, "", ev.Title, ev.Date)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetAudit(c *gin.Context) {
	sourceGroup := c.Query("source_group")

	limit := 50
	if s := c.Query("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.auditRepo.GetEntries(sourceGroup, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_audit", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		out = append(out, map[string]interface{}{
			"id":            entry.ID,
			"event_id":      entry.EventID,
			"source_group":  entry.SourceGroup,
			"action":        entry.Action,
			"field_changed": entry.FieldChanged,
			"old_value":     entry.OldValue,
			"new_value":     entry.NewValue,
			"event_title":   entry.EventTitle,
			"event_date":    formatDate(entry.EventDate),
			"changed_by":    entry.ChangedBy,
			"batch_id":      entry.BatchID,
			"changed_at":    entry.ChangedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"entries": out, "total": len(out)})
}

// SyncPortal enqueues a background sync for one configured portal.
func (h *Handler) SyncPortal(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing portal name parameter"})
		return
	}

	portalConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portal configuration not found"})
		return
	}

	task := tasks.NewSyncPortalTask(name, portalConfig, h.crawler, h.normalizer,
		h.reconciler, h.eventRepo, h.auditRepo)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue sync task", "portal", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Sync enqueued", "portal": name})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		health["events"] = eventCount
	}

	health["loaded_portals"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"portals": h.configCache.GetConfigCount(),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		stats["events"] = eventCount
	}
	if counts, err := h.eventRepo.GetCategoryCounts(); err == nil {
		stats["by_category"] = counts
	}
	if auditCount, err := h.auditRepo.GetEntryCount(); err == nil {
		stats["audit_entries"] = auditCount
	}

	c.JSON(http.StatusOK, stats)
}

// toEvent validates one import item and converts it to a canonical event.
func toEvent(item ImportEvent) (events.Event, error) {
	required := []struct {
		name  string
		value string
	}{
		{"source_group", item.SourceGroup},
		{"title", item.Title},
		{"date", item.Date},
		{"category", item.Category},
		{"signup_url", item.SignupURL},
	}
	for _, field := range required {
		if field.value == "" {
			return events.Event{}, fmt.Errorf("%s is required", field.name)
		}
	}

	date, err := events.ParseEventDate(item.Date)
	if err != nil {
		return events.Event{}, fmt.Errorf("unparseable date %q", item.Date)
	}

	startDate := date
	if item.StartDate != "" {
		if parsed, err := events.ParseEventDate(item.StartDate); err == nil {
			startDate = parsed
		}
	}
	endDate := date
	if item.EndDate != "" {
		if parsed, err := events.ParseEventDate(item.EndDate); err == nil {
			endDate = parsed
		}
	}

	timeWindow := item.TimeWindow
	if timeWindow == "" {
		timeWindow = events.DefaultTimeWindow
	}

	return events.Event{
		SourceGroup: item.SourceGroup,
		Title:       events.CleanTitle(item.Title),
		Date:        date,
		StartDate:   startDate,
		EndDate:     endDate,
		TimeWindow:  timeWindow,
		Price:       item.Price,
		Category:    item.Category,
		SignupURL:   item.SignupURL,
		DayOfWeek:   date.Weekday().String(),
		AgeMin:      item.AgeMin,
		AgeMax:      item.AgeMax,
	}, nil
}

func eventJSON(ev events.Event) map[string]interface{} {
	out := map[string]interface{}{
		"id":           ev.ID,
		"source_group": ev.SourceGroup,
		"title":        ev.Title,
		"date":         formatDate(ev.Date),
		"start_date":   formatDate(ev.StartDate),
		"end_date":     formatDate(ev.EndDate),
		"time_window":  ev.TimeWindow,
		"category":     ev.Category,
		"signup_url":   ev.SignupURL,
		"day_of_week":  ev.DayOfWeek,
	}
	if ev.Price != nil {
		out["price"] = *ev.Price
	}
	if ev.AgeMin != nil {
		out["age_min"] = *ev.AgeMin
	}
	if ev.AgeMax != nil {
		out["age_max"] = *ev.AgeMax
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/cfg"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/database"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/portal"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache *portal.ConfigCache
	eventRepo   database.EventRepository
	auditRepo   database.AuditRepository
	crawler     *source.Crawler
	normalizer  *events.Normalizer
	reconciler  *events.Reconciler
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	// nextSyncAt is touched only by the enqueue goroutine.
	nextSyncAt map[string]time.Time
}

func NewScheduler(configCache *portal.ConfigCache, eventRepo database.EventRepository,
	auditRepo database.AuditRepository, crawler *source.Crawler,
	normalizer *events.Normalizer, reconciler *events.Reconciler) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		eventRepo:   eventRepo,
		auditRepo:   auditRepo,
		crawler:     crawler,
		normalizer:  normalizer,
		reconciler:  reconciler,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
		nextSyncAt:  make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	portalConfigs := s.configCache.GetEnabledConfigs()
	if len(portalConfigs) == 0 {
		slog.Debug("No enabled portal configurations found")
		return
	}

	now := time.Now().UTC()
	for _, portalConfig := range portalConfigs {
		if next, ok := s.nextSyncAt[portalConfig.Name]; ok && next.After(now) {
			slog.Debug("Portal not due for sync yet", "portal", portalConfig.Name, "next_sync_at", next)
			continue
		}

		task := NewSyncPortalTask(portalConfig.Name, portalConfig, s.crawler,
			s.normalizer, s.reconciler, s.eventRepo, s.auditRepo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue SyncPortalTask", "portal", portalConfig.Name, "error", err)
			continue
		}
		s.nextSyncAt[portalConfig.Name] = now.Add(time.Duration(portalConfig.Settings.SyncInterval) * time.Second)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "portal", task.GetPortalName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "events_created_total",
		Help:      "Events created during reconciliation",
	}, []string{"source_group"})

	EventsUpdated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "events_updated_total",
		Help:      "Events updated during reconciliation",
	}, []string{"source_group"})

	EventsUnchanged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "events_unchanged_total",
		Help:      "Candidates classified as unchanged during reconciliation",
	}, []string{"source_group"})

	BatchDuplicates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "batch_duplicates_total",
		Help:      "Candidates dropped by intra-batch deduplication",
	}, []string{"source_group"})

	PortalCrawlFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "portal_crawl_failures_total",
		Help:      "Portal crawls that ended with an isolated failure",
	}, []string{"portal"})

	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "pages_fetched_total",
		Help:      "Listing pages fetched by the paginated aggregator",
	})

	FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "fetch_errors_total",
		Help:      "Fetch failures by kind (http, timeout, other)",
	}, []string{"kind"})

	AuditAppendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Name:      "audit_append_failures_total",
		Help:      "Audit entries that could not be persisted",
	})
)

func init() {
	prometheus.MustRegister(
		EventsCreated,
		EventsUpdated,
		EventsUnchanged,
		BatchDuplicates,
		PortalCrawlFailures,
		PagesFetched,
		FetchErrors,
		AuditAppendFailures,
	)
}

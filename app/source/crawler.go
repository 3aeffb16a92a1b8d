package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/metrics"
)

// DefaultProgramFilters is the program-name allowlist applied when a caller
// supplies none.
var DefaultProgramFilters = []string{"camp", "clinic", "kids night out"}

var listingURLPattern = regexp.MustCompile(`/api/open/v1/[^/]+/camps(\?|$)`)

// IsListingURL reports whether rawURL points at a portal listings endpoint.
func IsListingURL(rawURL string) bool {
	return listingURLPattern.MatchString(rawURL)
}

// Crawler walks portals → locations → program types → paginated listings and
// synthesizes canonical signup links. One portal's failure never aborts the
// others; partial results are a valid terminal state.
type Crawler struct {
	client     *Client
	paginator  *Paginator
	apiBase    string
	publicHost string
}

func NewCrawler(client *Client, apiBase, publicHost string) *Crawler {
	return &Crawler{
		client:     client,
		paginator:  NewPaginator(client),
		apiBase:    strings.TrimRight(apiBase, "/"),
		publicHost: publicHost,
	}
}

// CollectionResult maps each portal to its discovered signup links,
// duplicates removed per portal, insertion order preserved.
type CollectionResult struct {
	TotalCount int
	AllLinks   []string
	ByPortal   map[string][]string
}

type location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type program struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type locationsResponse struct {
	Data []location `json:"data"`
}

type programsResponse struct {
	Data []program `json:"data"`
}

// CollectLinks crawls each portal independently. Errors are logged and the
// portal's partial (possibly empty) result is kept.
func (cr *Crawler) CollectLinks(ctx context.Context, portalIDs []string, programFilters []string) *CollectionResult {
	if len(programFilters) == 0 {
		programFilters = DefaultProgramFilters
	}

	result := &CollectionResult{
		AllLinks: make([]string, 0),
		ByPortal: make(map[string][]string, len(portalIDs)),
	}

	for _, portalID := range portalIDs {
		links, err := cr.collectPortalLinks(ctx, portalID, programFilters)
		if err != nil {
			slog.Error("Portal crawl failed, keeping partial result",
				"portal", portalID, "links", len(links), "error", err)
			metrics.PortalCrawlFailures.WithLabelValues(portalID).Inc()
		}
		result.ByPortal[portalID] = links
		result.AllLinks = append(result.AllLinks, links...)
	}

	result.TotalCount = len(result.AllLinks)
	return result
}

func (cr *Crawler) collectPortalLinks(ctx context.Context, portalID string, programFilters []string) ([]string, error) {
	listings, err := cr.CollectListings(ctx, portalID, programFilters)

	links := make([]string, 0, len(listings))
	seen := make(map[string]bool, len(listings))
	for _, listing := range listings {
		if listing.ID == 0 {
			continue
		}
		link := cr.SignupURL(portalID, listing.ID)
		if seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}

	return links, err
}

// CollectListings walks one portal and returns every raw listing produced by
// its matching programs. On failure the listings gathered so far are returned
// alongside the error.
func (cr *Crawler) CollectListings(ctx context.Context, portalID string, programFilters []string) ([]events.RawListing, error) {
	if len(programFilters) == 0 {
		programFilters = DefaultProgramFilters
	}

	listings := make([]events.RawListing, 0)

	var locs locationsResponse
	if err := cr.client.FetchJSON(ctx, cr.locationsURL(portalID), &locs); err != nil {
		return listings, fmt.Errorf("failed to fetch locations for %s: %w", portalID, err)
	}

	for _, loc := range locs.Data {
		if loc.ID == 0 {
			// Entries without a usable location id are skipped.
			continue
		}

		var progs programsResponse
		if err := cr.client.FetchJSON(ctx, cr.programsURL(portalID, loc.ID), &progs); err != nil {
			return listings, fmt.Errorf("failed to fetch programs for %s location %d: %w", portalID, loc.ID, err)
		}

		for _, prog := range progs.Data {
			if !matchesAnyFilter(prog.Name, programFilters) {
				continue
			}

			merged, _, err := cr.paginator.Run(ctx, cr.listingsURL(portalID, loc.ID, prog.ID))
			if err != nil {
				return listings, fmt.Errorf("failed to fetch listings for %s program %d: %w", portalID, prog.ID, err)
			}

			items, _ := merged["data"].([]json.RawMessage)
			for _, raw := range items {
				var listing events.RawListing
				if err := json.Unmarshal(raw, &listing); err != nil {
					slog.Warn("Skipping undecodable listing item", "portal", portalID, "program", prog.ID, "error", err)
					continue
				}
				listings = append(listings, listing)
			}
		}
	}

	return listings, nil
}

// SignupURL synthesizes the canonical public URL for one listing item.
func (cr *Crawler) SignupURL(portalID string, itemID int64) string {
	return events.BuildSignupURL(cr.publicHost, portalID, itemID)
}

func (cr *Crawler) locationsURL(portalID string) string {
	return fmt.Sprintf("%s/%s/locations", cr.apiBase, portalID)
}

func (cr *Crawler) programsURL(portalID string, locationID int64) string {
	return fmt.Sprintf("%s/%s/camps/types?locationId=%d", cr.apiBase, portalID, locationID)
}

func (cr *Crawler) listingsURL(portalID string, locationID, programID int64) string {
	return fmt.Sprintf("%s/%s/camps?locationId=%d&typeId=%d&limit=%d&page=1", cr.apiBase, portalID, locationID, programID, PageSize)
}

func matchesAnyFilter(name string, filters []string) bool {
	lower := strings.ToLower(name)
	for _, f := range filters {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

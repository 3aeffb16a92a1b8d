package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/metrics"
)

// PageSize matches the source API's default page length. A short page (fewer
// than PageSize items) is the sole pagination termination signal; a page of
// exactly PageSize items triggers one more fetch.
const PageSize = 50

// Paginator walks a paginated listing endpoint and merges all pages into one
// payload.
type Paginator struct {
	client *Client
}

func NewPaginator(client *Client) *Paginator {
	return &Paginator{client: client}
}

// Run fetches firstPageURL, then increments the page query parameter until a
// short page is returned. Non-array metadata fields from page 1 are copied
// into the merged payload; a totalRecords field is overwritten with the true
// merged length.
func (p *Paginator) Run(ctx context.Context, firstPageURL string) (map[string]any, int, error) {
	merged := make(map[string]any)
	var items []json.RawMessage

	pageNum := 1
	pages := 0

	for {
		pageURL := firstPageURL
		if pageNum > 1 {
			pageURL = withPage(firstPageURL, pageNum)
		}

		var body map[string]json.RawMessage
		if err := p.client.FetchJSON(ctx, pageURL, &body); err != nil {
			return nil, pages, err
		}
		pages++
		metrics.PagesFetched.Inc()

		var pageItems []json.RawMessage
		if raw, ok := body["data"]; ok {
			if err := json.Unmarshal(raw, &pageItems); err != nil {
				return nil, pages, fmt.Errorf("unexpected data field shape at %s: %w", pageURL, err)
			}
		}

		if pages == 1 {
			for k, v := range body {
				if isJSONArray(v) {
					continue
				}
				merged[k] = v
			}
		}

		items = append(items, pageItems...)

		if len(pageItems) < PageSize {
			break
		}
		pageNum++
	}

	merged["data"] = items
	if _, ok := merged["totalRecords"]; ok {
		merged["totalRecords"] = len(items)
	}

	return merged, pages, nil
}

func withPage(rawURL string, pageNum int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(pageNum))
	u.RawQuery = q.Encode()
	return u.String()
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '['
		}
	}
	return false
}

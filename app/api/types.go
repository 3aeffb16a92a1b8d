package api

type CollectLinksRequest struct {
	SourceIDs      []string `json:"source_ids"`
	ProgramFilters []string `json:"program_filters"`
}

type MergePagesRequest struct {
	URL string `json:"url"`
}

type ImportEventsRequest struct {
	Events []ImportEvent `json:"events"`
}

// ImportEvent is one raw-or-canonical record pasted or posted by an operator.
type ImportEvent struct {
	SourceGroup string   `json:"source_group"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	TimeWindow  string   `json:"time_window"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	SignupURL   string   `json:"signup_url"`
	AgeMin      *int     `json:"age_min"`
	AgeMax      *int     `json:"age_max"`
}

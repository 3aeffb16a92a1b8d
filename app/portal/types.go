package portal

// Config describes one crawled portal tenant. Name is derived from the
// configuration filename.
type Config struct {
	Name        string   // Derived from filename (without .yml extension)
	Portal      string   `yaml:"portal"` // account slug on the source API
	SourceGroup string   `yaml:"source_group"`
	Settings    Settings `yaml:"settings"`
}

type Settings struct {
	Enabled        bool     `yaml:"enabled"`
	SyncInterval   int      `yaml:"sync_interval"` // seconds
	ProgramFilters []string `yaml:"program_filters"`
}

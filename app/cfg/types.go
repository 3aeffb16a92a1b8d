package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	PortalsDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	ServiceRoleKey    string

	// Source API configuration
	SourceAPIBase string
	PublicHost    string
	FetchTimeout  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

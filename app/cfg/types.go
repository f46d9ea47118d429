package cfg

type Cfg struct {
	// Storage paths
	ChannelsDir string
	DataDir     string
	CacheDir    string
	PostedFile  string
	DBPath      string

	// Image provider credentials
	PexelsAPIKey   string
	UnsplashAPIKey string
	PixabayAPIKey  string

	// Publisher credentials
	IGAccountID   string
	IGAccessToken string
	IGAppID       string
	IGAppSecret   string

	// Optional shared query cache
	RedisAddr string

	// Application configuration
	Port              string
	APIAccessKey      string
	WorkerCount       int
	SchedulerInterval int
	RequestTimeout    int
	RetryBackoff      int
	FFmpegPath        string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

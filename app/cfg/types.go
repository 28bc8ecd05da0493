package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath     string
	CatalogDir string

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Refresh
	WorkerCount  int
	FetchTimeout time.Duration
	HostInterval time.Duration
	StrictTLS    bool
	UserAgent    string

	// RSS cache
	RedisAddr string
	CacheTTL  time.Duration

	// Application metadata
	LogFile  string
	Timezone string
	Debug    bool
	Version  string
}

// PublicURL returns the base URL used for links in generated documents.
func (c *Cfg) PublicURL() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return "http://localhost:" + c.Port
}

package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./data/rssync.db" description:"Path to the SQLite database file"`
	CatalogDir string `long:"catalog-dir" env:"CATALOG_DIR" default:"./catalog" description:"Directory containing sources/ and lists/ YAML definitions"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://rss.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the refresh API (optional, API disabled when empty)"`

	// Refresh
	WorkerCount  int           `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Maximum number of sources refreshed concurrently"`
	FetchTimeout time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"Timeout for a single feed download"`
	HostInterval time.Duration `long:"host-interval" env:"HOST_INTERVAL" default:"1s" description:"Minimum interval between requests to the same host (0 disables)"`
	StrictTLS    bool          `long:"strict-tls" env:"STRICT_TLS" description:"Verify TLS certificates of feed hosts"`
	UserAgent    string        `long:"user-agent" env:"USER_AGENT" default:"RSSync/1.0 RSS Reader" description:"User agent string for HTTP requests"`

	// RSS cache
	RedisAddr string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for caching rendered list feeds (optional)"`
	CacheTTL  time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"5m" description:"TTL of cached list feeds"`

	// Application metadata
	LogFile  string `long:"log-file" env:"LOG_FILE" description:"Also write logs to this file, rotated by size"`
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Berlin)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return load(nil)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:       raw.DBPath,
		CatalogDir:   raw.CatalogDir,
		Port:         raw.Port,
		BaseUrl:      strings.TrimRight(raw.BaseUrl, "/"),
		APIAccessKey: raw.APIAccessKey,
		WorkerCount:  raw.WorkerCount,
		FetchTimeout: raw.FetchTimeout,
		HostInterval: raw.HostInterval,
		StrictTLS:    raw.StrictTLS,
		UserAgent:    raw.UserAgent,
		RedisAddr:    raw.RedisAddr,
		CacheTTL:     raw.CacheTTL,
		LogFile:      raw.LogFile,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.WorkerCount)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.HostInterval < 0 {
		return fmt.Errorf("host interval must be non-negative, got %s", c.HostInterval)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

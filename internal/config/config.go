// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all run configuration loaded via Viper.
type Config struct {
	Target    TargetConfig    `mapstructure:"target"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	AI        AIConfig        `mapstructure:"ai"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Server    ServerConfig    `mapstructure:"server"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TargetConfig names the site to harvest.
type TargetConfig struct {
	URL string `mapstructure:"url"`
}

// ScrapeConfig bounds the scrape phase.
type ScrapeConfig struct {
	MaxPages int `mapstructure:"max_pages"`
	Workers  int `mapstructure:"workers"`
}

// DiscoveryConfig controls the discovery strategies.
type DiscoveryConfig struct {
	SitemapMinPages int             `mapstructure:"sitemap_min_pages"`
	MaxURLs         int             `mapstructure:"max_urls"`
	RatePerSecond   float64         `mapstructure:"rate_per_second"`
	DeepCrawl       DeepCrawlConfig `mapstructure:"deep_crawl"`
}

// DeepCrawlConfig governs the budgeted breadth-first strategy.
type DeepCrawlConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Budget   int  `mapstructure:"budget"`
	Workers  int  `mapstructure:"workers"`
	MinPages int  `mapstructure:"min_pages"`
}

// AIConfig configures the URL scoring service.
type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// HTTPConfig tunes the fetch client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	UserAgent      string `mapstructure:"user_agent"`
	DelayMs        int    `mapstructure:"delay_ms"`
}

// ServerConfig controls the progress HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// OutputConfig sets where results land.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

const (
	maxWorkers         = 30
	maxDeepCrawlBudget = 100
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys must be known to viper for AutomaticEnv to reach Unmarshal.
	v.SetDefault("target.url", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("scrape.max_pages", 20)
	v.SetDefault("scrape.workers", 20)
	v.SetDefault("discovery.sitemap_min_pages", 20)
	v.SetDefault("discovery.max_urls", 2000)
	v.SetDefault("discovery.rate_per_second", 2)
	v.SetDefault("discovery.deep_crawl.enabled", false)
	v.SetDefault("discovery.deep_crawl.budget", 50)
	v.SetDefault("discovery.deep_crawl.workers", 3)
	v.SetDefault("discovery.deep_crawl.min_pages", 50)
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "openai/gpt-4o-mini")
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.user_agent", "contact-harvester/1.0")
	v.SetDefault("http.delay_ms", 250)
	v.SetDefault("server.port", 8080)
	v.SetDefault("output.dir", "output")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be > 0")
	}
	if c.Scrape.Workers <= 0 || c.Scrape.Workers > maxWorkers {
		return fmt.Errorf("scrape.workers must be in 1..%d", maxWorkers)
	}
	if c.Discovery.DeepCrawl.Enabled {
		if c.Discovery.DeepCrawl.Budget <= 0 || c.Discovery.DeepCrawl.Budget > maxDeepCrawlBudget {
			return fmt.Errorf("discovery.deep_crawl.budget must be in 1..%d", maxDeepCrawlBudget)
		}
		if c.Discovery.DeepCrawl.Workers <= 0 {
			return fmt.Errorf("discovery.deep_crawl.workers must be > 0")
		}
	}
	// An enabled AI section without an API key is not an error; the run
	// downgrades to keyword-only scoring.
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// HTTPTimeout returns the fetch timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// FetchDelay returns the per-domain fetch delay.
func (c Config) FetchDelay() time.Duration {
	return time.Duration(c.HTTP.DelayMs) * time.Millisecond
}

// AIActive reports whether AI scoring should actually run.
func (c Config) AIActive() bool {
	return c.AI.Enabled && c.AI.APIKey != ""
}

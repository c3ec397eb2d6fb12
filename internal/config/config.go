// Package config loads and validates collection configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all run configuration knobs loaded via Viper.
type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	Extract ExtractConfig `mapstructure:"extract"`
	Collect CollectConfig `mapstructure:"collect"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SearchConfig governs candidate discovery.
type SearchConfig struct {
	Terms          []string `mapstructure:"terms"`
	Tokens         []string `mapstructure:"tokens"`
	Blacklist      []string `mapstructure:"blacklist"`
	PerBucketFloor int      `mapstructure:"per_bucket_floor"`
	Backends       []string `mapstructure:"backends"`
	ExpandSitemaps bool     `mapstructure:"expand_sitemaps"`
}

// ExtractConfig carries the extraction vocabularies.
type ExtractConfig struct {
	Materials []string `mapstructure:"materials"`
	Services  []string `mapstructure:"services"`
}

// CollectConfig tunes the collection loop.
type CollectConfig struct {
	Workers          int `mapstructure:"workers"`
	RefillMultiplier int `mapstructure:"refill_multiplier"`
	DefaultCount     int `mapstructure:"default_count"`
}

// HTTPConfig configures the shared fetcher.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRedirects   int     `mapstructure:"max_redirects"`
	UseCookieJar   bool    `mapstructure:"use_cookie_jar"`
	Fingerprint    string  `mapstructure:"fingerprint"`
	ProxyFile      string  `mapstructure:"proxy_file"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	RateJitter     float64 `mapstructure:"rate_jitter"`
}

// OutputConfig sets where records land.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
	PgDSN  string `mapstructure:"pg_dsn"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load builds a Config from disk/environment. Environment variables use
// the INGOT_ prefix with dots replaced by underscores.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INGOT")
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
	v.SetDefault("search.terms", []string{
		"scrap metal recycling",
		"scrap metal buyers",
		"metal recycling center",
		"scrap yard",
		"metal salvage",
	})
	v.SetDefault("search.tokens", []string{"scrap", "metal", "recycl"})
	v.SetDefault("search.blacklist", []string{
		"youtube.com", "amazon.com", "quora.com", "yelp.com",
		"wikipedia.org", "facebook.com", "twitter.com", "medium.com",
		"dailymotion.com",
	})
	v.SetDefault("search.per_bucket_floor", 5)
	v.SetDefault("search.backends", []string{"duckduckgo", "bing"})
	v.SetDefault("search.expand_sitemaps", false)

	v.SetDefault("extract.materials", []string{
		"copper", "aluminum", "steel", "brass", "iron",
		"stainless", "lead", "zinc", "nickel", "titanium",
	})
	v.SetDefault("extract.services", []string{
		"demolition", "container", "pickup", "towing",
		"dumpster", "hauling", "roll-off", "dismantling",
	})

	v.SetDefault("collect.workers", 8)
	v.SetDefault("collect.refill_multiplier", 2)
	v.SetDefault("collect.default_count", 200)

	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_redirects", 5)
	v.SetDefault("http.use_cookie_jar", true)
	v.SetDefault("http.fingerprint", "chrome")
	v.SetDefault("http.rate_per_second", 2.0)
	v.SetDefault("http.rate_jitter", 0.3)

	v.SetDefault("output.format", "csv")
	v.SetDefault("output.path", "businesses.csv")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Search.Terms) == 0 {
		return fmt.Errorf("search.terms must not be empty")
	}
	if c.Collect.Workers <= 0 {
		return fmt.Errorf("collect.workers must be > 0")
	}
	if c.Collect.RefillMultiplier <= 0 {
		return fmt.Errorf("collect.refill_multiplier must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Output.Format {
	case "csv", "json", "xlsx", "sqlite", "postgres":
	default:
		return fmt.Errorf("output.format %q not supported", c.Output.Format)
	}
	if c.Output.Format == "postgres" && c.Output.PgDSN == "" {
		return fmt.Errorf("output.pg_dsn must be set for postgres output")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

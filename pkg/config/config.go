package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		BaseURL string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public base URL used in generated RSS links"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Sources SourcesConfig `yaml:"sources" json:"sources" jsonschema:"description=News source fallback chain configuration"`

	Scoring ScoringConfig `yaml:"scoring" json:"scoring" jsonschema:"description=Relevance and ranking weights"`

	Stance StanceConfig `yaml:"stance" json:"stance" jsonschema:"description=Stance classification configuration"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Full-text extraction configuration"`

	Cache CacheConfig `yaml:"cache" json:"cache" jsonschema:"description=Stance result cache configuration"`
}

// APISourceConfig holds settings for one external news API
type APISourceConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" jsonschema:"description=API base URL"`
	APIKey   string `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
}

// SourcesConfig holds the fetcher fallback chain settings. Fetchers are
// tried in a fixed priority order: newsapi, gnews, guardian, rss, fixture.
type SourcesConfig struct {
	NewsAPI  APISourceConfig `yaml:"newsapi" json:"newsapi" jsonschema:"description=NewsAPI.org configuration"`
	GNews    APISourceConfig `yaml:"gnews" json:"gnews" jsonschema:"description=GNews configuration"`
	Guardian APISourceConfig `yaml:"guardian" json:"guardian" jsonschema:"description=The Guardian configuration"`

	RSSFeeds []RSSFeed `yaml:"rss_feeds" json:"rss_feeds" jsonschema:"description=Static RSS feeds used as a fallback source"`

	FixtureFile string `yaml:"fixture_file" json:"fixture_file" jsonschema:"description=YAML file with fixture articles for the terminal fallback"`

	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Per-fetcher call timeout"`
	RetryCount int           `yaml:"retry_count" json:"retry_count" jsonschema:"default=2,description=Attempts per fetcher before falling back (1 disables retry)"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Lensnet/1.0,description=User agent for outbound requests"`
}

// RSSFeed is a single configured RSS/Atom feed
type RSSFeed struct {
	Name string `yaml:"name" json:"name" jsonschema:"required,description=Feed display name"`
	URL  string `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
}

// ScoringConfig holds relevance sub-score weights and the final fusion
// weights. Alpha+Beta must sum to 1.
type ScoringConfig struct {
	TopicalWeight float64 `yaml:"topical_weight" json:"topical_weight" jsonschema:"default=0.5,description=Weight of query-term presence"`
	SourceWeight  float64 `yaml:"source_weight" json:"source_weight" jsonschema:"default=0.25,description=Weight of source credibility"`
	DepthWeight   float64 `yaml:"depth_weight" json:"depth_weight" jsonschema:"default=0.25,description=Weight of content depth"`

	DepthWordThreshold int `yaml:"depth_word_threshold" json:"depth_word_threshold" jsonschema:"default=500,description=Word count at which depth score saturates"`

	Alpha float64 `yaml:"alpha" json:"alpha" jsonschema:"default=0.5,description=Relevance weight in final score"`
	Beta  float64 `yaml:"beta" json:"beta" jsonschema:"default=0.5,description=Bias-match weight in final score"`

	SourceCredibility map[string]float64 `yaml:"source_credibility" json:"source_credibility" jsonschema:"description=Per-domain credibility overrides in [0..1]"`
}

// StanceConfig holds stance classification settings. The keyword classifier
// always runs; the LLM override is consulted only when the keyword result is
// ambiguous (confidence below the threshold) and LLM is enabled.
type StanceConfig struct {
	TextBudget         int     `yaml:"text_budget" json:"text_budget" jsonschema:"default=2000,description=Max characters of article text used for classification"`
	AmbiguityThreshold float64 `yaml:"ambiguity_threshold" json:"ambiguity_threshold" jsonschema:"default=0.4,description=Keyword confidence below which the LLM override runs"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=Optional LLM override configuration"`
}

// LLMConfig holds the OpenAI-compatible endpoint used for stance override
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable the LLM stance override"`
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. gpt-4o-mini or llama3)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.1,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=300,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
}

// ExtractionConfig holds full-text extraction settings
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable full-text extraction for thin candidates"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per article"`
	MaxConcurrent int           `yaml:"max_concurrent" json:"max_concurrent" jsonschema:"default=5,description=Maximum concurrent extractions"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=300,description=Candidates with less text get full-text extraction"`
}

// CacheConfig holds the stance result cache settings
type CacheConfig struct {
	Enabled         bool   `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable the SQLite stance cache"`
	DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:lensnet.db?cache=shared&mode=rwc,description=Database connection string"`
	MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
}

// defaultSourceCredibility is the built-in credibility table by source
// domain. Config entries override individual domains.
var defaultSourceCredibility = map[string]float64{
	"reuters.com":        0.9,
	"ap.org":             0.9,
	"bbc.com":            0.8,
	"bbc.co.uk":          0.8,
	"nytimes.com":        0.8,
	"wsj.com":            0.8,
	"washingtonpost.com": 0.8,
	"npr.org":            0.8,
	"pbs.org":            0.8,
	"bloomberg.com":      0.8,
	"theguardian.com":    0.8,
	"arstechnica.com":    0.8,
	"cnn.com":            0.7,
	"foxnews.com":        0.7,
	"msnbc.com":          0.7,
	"usatoday.com":       0.7,
	"nbcnews.com":        0.7,
	"abcnews.go.com":     0.7,
	"cbsnews.com":        0.7,
	"forbes.com":         0.7,
	"techcrunch.com":     0.7,
	"theverge.com":       0.7,
}

// DefaultSourceCredibility is the fallback weight for unknown sources
const DefaultSourceCredibility = 0.5

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no external
// API keys, suitable for running on RSS and fixtures alone.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults fills zero values with documented defaults
func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 10 * time.Second
	}
	if c.Sources.RetryCount == 0 {
		c.Sources.RetryCount = 2
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = "Lensnet/1.0"
	}
	if c.Sources.NewsAPI.Endpoint == "" {
		c.Sources.NewsAPI.Endpoint = "https://newsapi.org/v2"
	}
	if c.Sources.GNews.Endpoint == "" {
		c.Sources.GNews.Endpoint = "https://gnews.io/api/v4"
	}
	if c.Sources.Guardian.Endpoint == "" {
		c.Sources.Guardian.Endpoint = "https://content.guardianapis.com"
	}

	if c.Scoring.TopicalWeight == 0 && c.Scoring.SourceWeight == 0 && c.Scoring.DepthWeight == 0 {
		c.Scoring.TopicalWeight = 0.5
		c.Scoring.SourceWeight = 0.25
		c.Scoring.DepthWeight = 0.25
	}
	if c.Scoring.DepthWordThreshold == 0 {
		c.Scoring.DepthWordThreshold = 500
	}
	if c.Scoring.Alpha == 0 && c.Scoring.Beta == 0 {
		c.Scoring.Alpha = 0.5
		c.Scoring.Beta = 0.5
	}
	// merge built-in credibility table, config entries win
	merged := make(map[string]float64, len(defaultSourceCredibility)+len(c.Scoring.SourceCredibility))
	for domain, weight := range defaultSourceCredibility {
		merged[domain] = weight
	}
	for domain, weight := range c.Scoring.SourceCredibility {
		merged[domain] = weight
	}
	c.Scoring.SourceCredibility = merged

	if c.Stance.TextBudget == 0 {
		c.Stance.TextBudget = 2000
	}
	if c.Stance.AmbiguityThreshold == 0 {
		c.Stance.AmbiguityThreshold = 0.4
	}
	if c.Stance.LLM.Temperature == 0 {
		c.Stance.LLM.Temperature = 0.1
	}
	if c.Stance.LLM.MaxTokens == 0 {
		c.Stance.LLM.MaxTokens = 300
	}
	if c.Stance.LLM.Timeout == 0 {
		c.Stance.LLM.Timeout = 30 * time.Second
	}

	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 30 * time.Second
	}
	if c.Extraction.MaxConcurrent == 0 {
		c.Extraction.MaxConcurrent = 5
	}
	if c.Extraction.MinTextLength == 0 {
		c.Extraction.MinTextLength = 300
	}

	if c.Cache.DSN == "" {
		c.Cache.DSN = "file:lensnet.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Cache.MaxOpenConns == 0 {
		c.Cache.MaxOpenConns = 10
	}
	if c.Cache.MaxIdleConns == 0 {
		c.Cache.MaxIdleConns = 5
	}
	if c.Cache.ConnMaxLifetime == 0 {
		c.Cache.ConnMaxLifetime = 3600
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate scoring weights
	if cfg.Scoring.TopicalWeight < 0 || cfg.Scoring.SourceWeight < 0 || cfg.Scoring.DepthWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if cfg.Scoring.TopicalWeight+cfg.Scoring.SourceWeight+cfg.Scoring.DepthWeight == 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}
	if cfg.Scoring.Alpha < 0 || cfg.Scoring.Beta < 0 {
		return fmt.Errorf("scoring.alpha and scoring.beta must be non-negative")
	}
	if diff := cfg.Scoring.Alpha + cfg.Scoring.Beta - 1.0; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("scoring.alpha and scoring.beta must sum to 1, got %.3f", cfg.Scoring.Alpha+cfg.Scoring.Beta)
	}
	for domain, weight := range cfg.Scoring.SourceCredibility {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("source_credibility for %q must be between 0 and 1", domain)
		}
	}

	// validate stance config
	if cfg.Stance.AmbiguityThreshold < 0 || cfg.Stance.AmbiguityThreshold > 1 {
		return fmt.Errorf("stance.ambiguity_threshold must be between 0 and 1")
	}
	if cfg.Stance.LLM.Enabled {
		if cfg.Stance.LLM.Endpoint == "" {
			return fmt.Errorf("stance.llm.endpoint is required when llm is enabled")
		}
		if cfg.Stance.LLM.Model == "" {
			return fmt.Errorf("stance.llm.model is required when llm is enabled")
		}
		if cfg.Stance.LLM.Temperature < 0 || cfg.Stance.LLM.Temperature > 2 {
			return fmt.Errorf("stance.llm.temperature must be between 0 and 2")
		}
	}

	// validate sources config
	if cfg.Sources.Timeout < time.Second {
		return fmt.Errorf("sources.timeout must be at least 1 second")
	}
	if cfg.Sources.RetryCount < 1 {
		return fmt.Errorf("sources.retry_count must be at least 1")
	}
	for _, feed := range cfg.Sources.RSSFeeds {
		if feed.URL == "" {
			return fmt.Errorf("rss feed %q has no url", feed.Name)
		}
	}

	// validate extraction config
	if cfg.Extraction.Enabled {
		if cfg.Extraction.Timeout < time.Second {
			return fmt.Errorf("extraction timeout must be at least 1 second")
		}
		if cfg.Extraction.MinTextLength < 0 {
			return fmt.Errorf("extraction min_text_length must be non-negative")
		}
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetBaseURL returns the public base URL for generated links
func (c *Config) GetBaseURL() string {
	return c.Server.BaseURL
}

// GetSourcesConfig returns the fetcher chain configuration
func (c *Config) GetSourcesConfig() SourcesConfig {
	return c.Sources
}

// GetScoringConfig returns scoring weights
func (c *Config) GetScoringConfig() ScoringConfig {
	return c.Scoring
}

// GetStanceConfig returns stance classification configuration
func (c *Config) GetStanceConfig() StanceConfig {
	return c.Stance
}

// GetExtractionConfig returns content extraction configuration
func (c *Config) GetExtractionConfig() ExtractionConfig {
	return c.Extraction
}

// GetCacheConfig returns stance cache configuration
func (c *Config) GetCacheConfig() CacheConfig {
	return c.Cache
}

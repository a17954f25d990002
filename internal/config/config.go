// Package config loads application configuration from a yaml file plus
// PLACEINTEL_-prefixed environment variables, and bootstraps the global
// logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voyantic/placeintel/internal/pipeline"
	"github.com/voyantic/placeintel/internal/source"
	"github.com/voyantic/placeintel/internal/taste"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig            `yaml:"store" mapstructure:"store"`
	Reader    ReaderConfig           `yaml:"reader" mapstructure:"reader"`
	Anthropic AnthropicConfig        `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig           `yaml:"openai" mapstructure:"openai"`
	Notion    NotionConfig           `yaml:"notion" mapstructure:"notion"`
	Awards    AwardsConfig           `yaml:"awards" mapstructure:"awards"`
	Lexicon   LexiconConfig          `yaml:"lexicon" mapstructure:"lexicon"`
	Pipeline  PipelineConfig         `yaml:"pipeline" mapstructure:"pipeline"`
	Scoring   pipeline.ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Taste     TasteConfig            `yaml:"taste" mapstructure:"taste"`
	Batch     BatchConfig            `yaml:"batch" mapstructure:"batch"`
	Backfill  BackfillConfig         `yaml:"backfill" mapstructure:"backfill"`
	Server    ServerConfig           `yaml:"server" mapstructure:"server"`
	Log       LogConfig              `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ReaderConfig holds web reader settings.
type ReaderConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds Anthropic API settings for signal extraction.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings for vector embeddings.
type OpenAIConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	EmbeddingModel string  `yaml:"embedding_model" mapstructure:"embedding_model"`
	RatePerSecond  float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// NotionConfig holds the editorial curation database credentials.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	CurationDB string `yaml:"curation_db" mapstructure:"curation_db"`
}

// AwardsConfig lists the award registries to scan.
type AwardsConfig struct {
	Registries []source.Registry `yaml:"registries" mapstructure:"registries"`
}

// LexiconConfig points at an optional lexicon override file.
type LexiconConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PipelineConfig configures enrichment behavior.
type PipelineConfig struct {
	SourceTimeoutSecs int `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
}

// TasteConfig configures decay, matching, and contradiction detection.
type TasteConfig struct {
	Decay                  taste.DecayConfig `yaml:"decay" mapstructure:"decay"`
	Match                  taste.MatchConfig `yaml:"match" mapstructure:"match"`
	ContradictionThreshold float64           `yaml:"contradiction_threshold" mapstructure:"contradiction_threshold"`
}

// BatchConfig configures batch enrichment.
type BatchConfig struct {
	Limit       int `yaml:"limit" mapstructure:"limit"`
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// BackfillConfig configures the vector backfill job.
type BackfillConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	PlaceLimit  int `yaml:"place_limit" mapstructure:"place_limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int    `yaml:"port" mapstructure:"port"`
	Token        string `yaml:"token" mapstructure:"token"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SourceTimeout returns the per-source enrichment timeout.
func (c PipelineConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSecs) * time.Second
}

// DefaultRegistries returns the built-in award registry dumps.
func DefaultRegistries() []source.Registry {
	return []source.Registry{
		{
			Name:        "Michelin",
			URL:         "https://guide.michelin.com/exports/selections.csv",
			Format:      "csv",
			NameColumn:  0,
			AwardColumn: 2,
			HasHeader:   true,
		},
		{
			Name:        "Worlds50Best",
			URL:         "https://www.theworlds50best.com/exports/list.xlsx",
			Format:      "xlsx",
			NameColumn:  1,
			AwardColumn: 3,
			SheetIndex:  0,
			HasHeader:   true,
		},
		{
			Name:        "LaListe",
			URL:         "ftp://data.laliste.com/dumps/laliste-current.csv",
			Format:      "csv",
			NameColumn:  0,
			AwardColumn: 1,
			HasHeader:   true,
		},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLACEINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys default to empty so env bindings resolve
	// without a config file.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("reader.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.curation_db", "")
	v.SetDefault("server.token", "")
	v.SetDefault("lexicon.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_ttl_secs", 60)
	v.SetDefault("reader.base_url", "https://r.jina.ai")
	v.SetDefault("reader.search_base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.rate_per_second", 5.0)
	v.SetDefault("pipeline.source_timeout_secs", 45)
	v.SetDefault("scoring.signal_saturation", 8)
	v.SetDefault("scoring.review_saturation", 10)
	v.SetDefault("scoring.review_weight", 0.5)
	v.SetDefault("scoring.volume_weight", 0.3)
	v.SetDefault("scoring.diversity_weight", 0.2)
	v.SetDefault("scoring.no_review_penalty", 0.5)
	v.SetDefault("scoring.min_score", 0.5)
	v.SetDefault("scoring.min_signals", 5)
	v.SetDefault("taste.decay.half_life_days", taste.DefaultHalfLifeDays)
	v.SetDefault("taste.match.saturation", 2.0)
	v.SetDefault("taste.match.decay.half_life_days", taste.DefaultHalfLifeDays)
	v.SetDefault("taste.contradiction_threshold", taste.ContradictionSpread)
	v.SetDefault("batch.limit", 50)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("backfill.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if len(cfg.Awards.Registries) == 0 {
		cfg.Awards.Registries = DefaultRegistries()
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

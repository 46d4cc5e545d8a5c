// Package config loads gemsieve's YAML configuration file and layers
// environment-variable overrides atop it, mirroring the teacher's
// Load/LoadFromEnv split so secrets never need to live in the checked-in
// config.yaml.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gemsieve pipeline and CLI.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Mail    MailConfig    `yaml:"mail"`
	AI      AIConfig      `yaml:"ai"`
	NER     NERConfig     `yaml:"ner"`
	Entities EntitiesConfig `yaml:"entities"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Scoring ScoringConfig `yaml:"scoring"`
	Engage  EngageConfig  `yaml:"engage"`
	Events  EventsConfig  `yaml:"events"`
}

// ServerConfig holds the admin HTTP surface's listen settings (§6.5).
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost allows SERVER_HOST to override the config file in containers.
func (c ServerConfig) GetHost() string {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig points at the embedded SQLite database (§6.2).
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// MailConfig configures the Gmail ingestion adapter (§4.2, §6.4).
type MailConfig struct {
	Provider        string `yaml:"provider"` // "gmail" today; interface leaves room for more
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	UserID          string `yaml:"user_id"` // "me" for the authenticated account
	HistoricalDays  int    `yaml:"historical_days"`
	BatchSize       int    `yaml:"batch_size"`
}

// AIConfig configures the LLM provider used by classify and engage (§6.3, §6.4).
type AIConfig struct {
	Provider       string `yaml:"provider"` // ollama | openai | anthropic
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"` // ollama/openai-compatible endpoints
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	BatchSize      int    `yaml:"batch_size"`
	MaxBodyChars   int    `yaml:"max_body_chars"`
	RetrainMode    bool   `yaml:"retrain_mode"`
}

// Timeout returns the configured AI call timeout as a duration.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NERConfig configures the external named-entity-recognition collaborator
// (§4.5, §6.4 — out-of-process by design).
type NERConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// EntitiesConfig toggles which entity-extraction branches the entity
// extractor runs (§4.5 "Config toggles").
type EntitiesConfig struct {
	ExtractMonetary    bool `yaml:"extract_monetary"`
	ExtractDates       bool `yaml:"extract_dates"`
	ExtractProcurement bool `yaml:"extract_procurement"`
}

// PipelineConfig configures the orchestration engine (§4.10, §5).
// DormantThreadDays also doubles as the gem detector's
// dormant_warm_thread gate-3 minimum (§4.7.4 "min_dormancy_days").
type PipelineConfig struct {
	MaxConcurrency    int `yaml:"max_concurrency"`
	BatchSize         int `yaml:"batch_size"`
	DormantThreadDays int `yaml:"dormant_thread_days"`
}

// ScoringConfig configures the segmenter/scorer and the gem detector's
// profile-fit rules (§4.7.4, §4.8, §6.2 "scoring.*"). The dormant-thread
// minimum-dormancy gate is configured on PipelineConfig.DormantThreadDays
// instead, since it gates the same pipeline stage that recomputes thread
// dormancy on ingest.
type ScoringConfig struct {
	MinGemScore        float64  `yaml:"min_gem_score"`
	TargetIndustries   []string `yaml:"target_industries"` // weak_marketing_lead's industry gate
	RequireHumanSender bool     `yaml:"require_human_sender"`
	KnownEntitiesFile  string   `yaml:"known_entities_file"`
}

// EngageConfig configures the engagement-draft stage (§4.9, §6.2
// "engagement.*").
type EngageConfig struct {
	YourName            string   `yaml:"your_name"`
	YourService         string   `yaml:"your_service"`
	YourTone            string   `yaml:"your_tone"`
	YourAudience        []string `yaml:"your_audience"` // co_marketing's keyword-intersection gate
	PreferredStrategies []string `yaml:"preferred_strategies"`
	MaxOutreachPerDay   int      `yaml:"max_outreach_per_day"`
	MaxDraftsPerRun     int      `yaml:"max_drafts_per_run"`
}

// EventsConfig configures the live pipeline event broadcast (§4.10, §6.5).
type EventsConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	Channel   string `yaml:"channel"`
}

// Load reads and parses the YAML configuration file, filling in defaults
// for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./gemsieve.db"
	}
	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "gmail"
	}
	if cfg.Mail.UserID == "" {
		cfg.Mail.UserID = "me"
	}
	if cfg.Mail.HistoricalDays == 0 {
		cfg.Mail.HistoricalDays = 365
	}
	if cfg.Mail.BatchSize == 0 {
		cfg.Mail.BatchSize = 100
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "ollama"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "llama3"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.AI.BatchSize == 0 {
		cfg.AI.BatchSize = 10
	}
	if cfg.AI.MaxBodyChars == 0 {
		cfg.AI.MaxBodyChars = 2000
	}
	if cfg.Pipeline.MaxConcurrency == 0 {
		cfg.Pipeline.MaxConcurrency = 4
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 200
	}
	if cfg.Pipeline.DormantThreadDays == 0 {
		cfg.Pipeline.DormantThreadDays = 14
	}
	if cfg.Scoring.MinGemScore == 0 {
		cfg.Scoring.MinGemScore = 40
	}
	if cfg.Engage.MaxDraftsPerRun == 0 {
		cfg.Engage.MaxDraftsPerRun = 20
	}
	if cfg.Engage.MaxOutreachPerDay == 0 {
		cfg.Engage.MaxOutreachPerDay = 10
	}
	if cfg.Events.Channel == "" {
		cfg.Events.Channel = "gemsieve:pipeline:events"
	}
}

// LoadFromEnv loads the YAML file (loading a local .env first, if present)
// then layers environment-variable overrides atop it — the escape hatch
// for secrets that must never land in a checked-in config.yaml.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GEMSIEVE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("GEMSIEVE_MAIL_CREDENTIALS_FILE"); v != "" {
		cfg.Mail.CredentialsFile = v
	}
	if v := os.Getenv("GEMSIEVE_MAIL_TOKEN_FILE"); v != "" {
		cfg.Mail.TokenFile = v
	}
	if v := os.Getenv("GEMSIEVE_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("GEMSIEVE_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("GEMSIEVE_AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.AI.Provider == "anthropic" && cfg.AI.APIKey == "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.AI.Provider == "openai" && cfg.AI.APIKey == "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("GEMSIEVE_AI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	// §6.2's own short-form names, kept alongside the GEMSIEVE_-prefixed
	// ones above for operators copying config straight from the spec.
	if v := os.Getenv("ollama_host"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("ollama_api_key"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("model_name"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("GEMSIEVE_REDIS_ADDR"); v != "" {
		cfg.Events.RedisAddr = v
	}

	return cfg, nil
}

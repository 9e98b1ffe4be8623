package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Mode        string            `yaml:"mode" mapstructure:"mode"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Fusion      FusionConfig      `yaml:"fusion_rules" mapstructure:"fusion_rules"`
	Hotspot     HotspotConfig     `yaml:"hotspot" mapstructure:"hotspot"`
	Conflict    ConflictConfig    `yaml:"conflict" mapstructure:"conflict"`
	Adjudicator AdjudicatorConfig `yaml:"adjudicator" mapstructure:"adjudicator"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProvidersConfig configures the extraction providers.
type ProvidersConfig struct {
	// Primary is the provider whose grid output is preferred for TABLE
	// entities.
	Primary string `yaml:"primary" mapstructure:"primary"`
	// Priority is the explicit tie-break order for fusion. Candidates from
	// earlier providers win ties.
	Priority []string `yaml:"priority" mapstructure:"priority"`
	// TimeoutSecs bounds each provider call in a fan-out wave.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`

	Reducto  EndpointConfig `yaml:"reducto" mapstructure:"reducto"`
	OCR      EndpointConfig `yaml:"ocr" mapstructure:"ocr"`
	LayoutLM EndpointConfig `yaml:"layoutlm" mapstructure:"layoutlm"`
	Donut    EndpointConfig `yaml:"donut" mapstructure:"donut"`
	Claude   ClaudeConfig   `yaml:"claude" mapstructure:"claude"`
}

// EndpointConfig holds settings for an HTTP inference service.
type EndpointConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Key     string  `yaml:"key" mapstructure:"key"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// ClaudeConfig holds Anthropic API settings for the vision provider.
type ClaudeConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RPS            float64 `yaml:"rps" mapstructure:"rps"`
	BaseConfidence float64 `yaml:"base_confidence" mapstructure:"base_confidence"`
}

// FusionConfig configures weighted arbitration.
type FusionConfig struct {
	// ProviderWeights maps entity type → provider → weight. Unknown
	// providers score zero.
	ProviderWeights map[string]map[string]float64 `yaml:"provider_weights" mapstructure:"provider_weights"`
	AgreementBoost  float64                       `yaml:"agreement_boost" mapstructure:"agreement_boost"`
}

// HotspotConfig configures low-confidence escalation.
type HotspotConfig struct {
	LowConfThreshold  float64 `yaml:"low_conf_threshold" mapstructure:"low_conf_threshold"`
	MaxRegionsPerPage int     `yaml:"max_regions_per_page" mapstructure:"max_regions_per_page"`
	// CoverageThreshold is the minimum fraction of required title-block
	// fields below which the vision fallback re-reads the title block.
	CoverageThreshold float64 `yaml:"coverage_threshold" mapstructure:"coverage_threshold"`
}

// ConflictConfig tunes the conflict detector.
type ConflictConfig struct {
	// Epsilon is the score band within which a disagreeing runner-up
	// triggers a conflict.
	Epsilon float64 `yaml:"epsilon" mapstructure:"epsilon"`
	// AdjudicationThreshold is the stricter floor on the winner's
	// calibrated confidence (distinct from the hotspot threshold).
	AdjudicationThreshold float64 `yaml:"adjudication_threshold" mapstructure:"adjudication_threshold"`
	// PrimaryFields maps entity type → the field whose disagreement counts.
	PrimaryFields map[string]string `yaml:"primary_fields" mapstructure:"primary_fields"`
}

// AdjudicatorConfig configures external conflict resolution.
type AdjudicatorConfig struct {
	Enabled      bool              `yaml:"enabled" mapstructure:"enabled"`
	DefaultModel string            `yaml:"default_model" mapstructure:"default_model"`
	Models       map[string]string `yaml:"models" mapstructure:"models"`
	MaxAttempts  int               `yaml:"max_attempts" mapstructure:"max_attempts"`
	MaxTokens    int64             `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// TelemetryConfig configures the NDJSON audit log.
type TelemetryConfig struct {
	LogPath string `yaml:"log_path" mapstructure:"log_path"`
}

// FetchConfig configures the FTP plan-room fetcher.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DownloadDir string `yaml:"download_dir" mapstructure:"download_dir"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A missing config file
// is not an error: built-in defaults keep every component usable.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("mode", "full")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "blueprint.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("providers.primary", "reducto")
	v.SetDefault("providers.priority", []string{"reducto", "claude", "layoutlm", "donut", "ocr"})
	v.SetDefault("providers.timeout_secs", 45)
	v.SetDefault("providers.reducto.rps", 2)
	v.SetDefault("providers.ocr.rps", 5)
	v.SetDefault("providers.layoutlm.rps", 5)
	v.SetDefault("providers.donut.rps", 2)
	v.SetDefault("providers.claude.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("providers.claude.max_tokens", 4096)
	v.SetDefault("providers.claude.rps", 1)
	v.SetDefault("providers.claude.base_confidence", 0.75)
	v.SetDefault("fusion_rules.agreement_boost", 0.1)
	v.SetDefault("hotspot.low_conf_threshold", 0.75)
	v.SetDefault("hotspot.max_regions_per_page", 4)
	v.SetDefault("hotspot.coverage_threshold", 0.6)
	v.SetDefault("conflict.epsilon", 0.05)
	v.SetDefault("conflict.adjudication_threshold", 0.55)
	v.SetDefault("conflict.primary_fields", map[string]string{
		"DIMENSION": "value",
		"WELD":      "symbol",
		"BOM_ROW":   "mark",
		"METADATA":  "sheet_number",
		"NOTE":      "text",
	})
	v.SetDefault("adjudicator.enabled", false)
	v.SetDefault("adjudicator.default_model", "claude-haiku-4-5-20251001")
	v.SetDefault("adjudicator.max_attempts", 2)
	v.SetDefault("adjudicator.max_tokens", 2048)
	v.SetDefault("telemetry.log_path", "logs/parsing")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.download_dir", "drawings")

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

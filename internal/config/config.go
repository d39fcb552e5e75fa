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
	Yelp     YelpConfig     `yaml:"yelp" mapstructure:"yelp"`
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// YelpConfig holds Yelp API credentials and endpoint settings.
type YelpConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Version     string `yaml:"version" mapstructure:"version"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ProviderConfig configures query building and upstream fan-out.
type ProviderConfig struct {
	DefaultLocation string  `yaml:"default_location" mapstructure:"default_location"`
	PageSize        int     `yaml:"page_size" mapstructure:"page_size"`
	MaxRadius       int     `yaml:"max_radius" mapstructure:"max_radius"`
	SplitGeometry   bool    `yaml:"split_geometry" mapstructure:"split_geometry"`
	Paginate        bool    `yaml:"paginate" mapstructure:"paginate"`
	CountThreshold  int     `yaml:"count_threshold" mapstructure:"count_threshold"`
	Stagger         string  `yaml:"stagger" mapstructure:"stagger"`
	JitterMinMs     int     `yaml:"jitter_min_ms" mapstructure:"jitter_min_ms"`
	JitterMaxMs     int     `yaml:"jitter_max_ms" mapstructure:"jitter_max_ms"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst       int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ServerConfig configures the feature service HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches for
// config.yaml in the working directory; a named file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("YELPFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("yelp.key", "")
	v.SetDefault("yelp.base_url", "https://api.yelp.com/v3")
	v.SetDefault("yelp.version", "v3")
	v.SetDefault("yelp.timeout_secs", 10)
	v.SetDefault("provider.default_location", "St. Louis, MO")
	v.SetDefault("provider.page_size", 50)
	v.SetDefault("provider.max_radius", 40000)
	v.SetDefault("provider.split_geometry", false)
	v.SetDefault("provider.paginate", false)
	v.SetDefault("provider.count_threshold", 1000)
	v.SetDefault("provider.stagger", "jitter")
	v.SetDefault("provider.jitter_min_ms", 500)
	v.SetDefault("provider.jitter_max_ms", 2500)
	v.SetDefault("provider.rate_per_sec", 2.0)
	v.SetDefault("provider.rate_burst", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Yelp.Version {
	case "v2", "v3":
	default:
		return eris.Errorf("config: unsupported yelp.version %q", c.Yelp.Version)
	}
	switch c.Provider.Stagger {
	case "jitter", "limiter", "none":
	default:
		return eris.Errorf("config: unsupported provider.stagger %q", c.Provider.Stagger)
	}
	if c.Provider.PageSize <= 0 {
		return eris.New("config: provider.page_size must be positive")
	}
	if c.Provider.JitterMaxMs < c.Provider.JitterMinMs {
		return eris.New("config: provider.jitter_max_ms must be >= jitter_min_ms")
	}
	return nil
}

// Redacted returns a copy of the config with secrets masked.
func (c Config) Redacted() Config {
	if c.Yelp.Key != "" {
		c.Yelp.Key = "****"
	}
	return c
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

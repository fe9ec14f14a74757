package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MaxPageSize is the largest page the insider-trading endpoint serves.
const MaxPageSize = 50

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = eris.New("config: sec-api key is not set (SEC_API_KEY)")

// Config holds the full application configuration.
type Config struct {
	SECAPI SECAPIConfig `yaml:"secapi" mapstructure:"secapi"`
	Pacing PacingConfig `yaml:"pacing" mapstructure:"pacing"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Trace  TraceConfig  `yaml:"trace" mapstructure:"trace"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// SECAPIConfig configures the sec-api.io insider-trading client.
type SECAPIConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// Timeout returns the per-request timeout.
func (c SECAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PacingConfig holds the fixed delays used to stay under the API rate limit.
type PacingConfig struct {
	PageDelayMS int `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	RowDelayMS  int `yaml:"row_delay_ms" mapstructure:"row_delay_ms"`
}

func (c PacingConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMS) * time.Millisecond
}

func (c PacingConfig) RowDelay() time.Duration {
	return time.Duration(c.RowDelayMS) * time.Millisecond
}

// OutputConfig configures where exports are written. Parquet and SQLite are opt-in.
type OutputConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Parquet    bool   `yaml:"parquet" mapstructure:"parquet"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	File      string `yaml:"file" mapstructure:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
}

// TraceConfig enables the stdout span exporter.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	File    string `yaml:"file" mapstructure:"file"`
}

// ServerConfig configures cmd/api.
type ServerConfig struct {
	Port             int    `yaml:"port" mapstructure:"port"`
	AdminKey         string `yaml:"admin_key" mapstructure:"admin_key"`
	ScanIntervalSecs int    `yaml:"scan_interval_secs" mapstructure:"scan_interval_secs"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional and never overrides variables already set.
	_ = godotenv.Load(".env")

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FORM4")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("secapi.key", "FORM4_SECAPI_KEY", "SEC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}
	if err := v.BindEnv("server.port", "FORM4_SERVER_PORT", "PORT"); err != nil {
		return nil, eris.Wrap(err, "config: bind server.port")
	}
	if err := v.BindEnv("server.admin_key", "FORM4_SERVER_ADMIN_KEY", "ADMIN_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind server.admin_key")
	}

	v.SetDefault("secapi.key", "")
	v.SetDefault("secapi.base_url", "https://api.sec-api.io")
	v.SetDefault("secapi.page_size", MaxPageSize)
	v.SetDefault("secapi.timeout_secs", 30)
	v.SetDefault("secapi.concurrency", 1)
	v.SetDefault("pacing.page_delay_ms", 100)
	v.SetDefault("pacing.row_delay_ms", 10)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.parquet", false)
	v.SetDefault("output.sqlite_path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.file", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.admin_key", "")
	v.SetDefault("server.scan_interval_secs", 5)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.SECAPI.Key = strings.TrimSpace(cfg.SECAPI.Key)
	if cfg.SECAPI.PageSize > MaxPageSize {
		cfg.SECAPI.PageSize = MaxPageSize
	}
	if cfg.SECAPI.Concurrency < 1 {
		cfg.SECAPI.Concurrency = 1
	}

	return &cfg, nil
}

// Validate checks the settings a fetch cannot run without.
func (c *Config) Validate() error {
	if c.SECAPI.Key == "" {
		return ErrMissingAPIKey
	}
	if c.SECAPI.PageSize < 1 {
		return eris.Errorf("config: secapi.page_size must be positive, got %d", c.SECAPI.PageSize)
	}
	return nil
}

// InitLogger initializes the global zap logger. When cfg.File is set, output
// is also written to a size-rotated file.
func InitLogger(cfg LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if cfg.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))

	return nil
}

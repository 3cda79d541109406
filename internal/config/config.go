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
	Socrata SocrataConfig `yaml:"socrata" mapstructure:"socrata"`
	Geo     GeoConfig     `yaml:"geo" mapstructure:"geo"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SocrataConfig configures the open-data portal client.
type SocrataConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	DatasetID   string `yaml:"dataset_id" mapstructure:"dataset_id"`
	Limit       int    `yaml:"limit" mapstructure:"limit"`
	AppToken    string `yaml:"app_token" mapstructure:"app_token"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeoConfig configures the municipality coordinate lookup.
type GeoConfig struct {
	CoordinatesPath string `yaml:"coordinates_path" mapstructure:"coordinates_path"`
}

// StoreConfig configures the snapshot database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	TopN     int    `yaml:"top_n" mapstructure:"top_n"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FENIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("socrata.base_url", "https://www.datos.gov.co")
	v.SetDefault("socrata.dataset_id", "ryr5-rs2a")
	v.SetDefault("socrata.limit", 5000)
	v.SetDefault("socrata.timeout_secs", 30)
	v.SetDefault("geo.coordinates_path", "coordenadas_municipios.csv")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "fenix.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("report.xlsx_path", "reporte_incendios.xlsx")
	v.SetDefault("report.top_n", 10)
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

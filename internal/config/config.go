package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Recon  ReconConfig  `mapstructure:"recon"`
	PDF    PDFConfig    `mapstructure:"pdf"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	GCS    GCSConfig    `mapstructure:"gcs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port             int    `mapstructure:"port"`
	TempDir          string `mapstructure:"temp_dir"`
	UploadsPerMinute int    `mapstructure:"uploads_per_minute"` // per client IP, 0 disables
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// ReconConfig holds reconciliation tuning.
type ReconConfig struct {
	LargeThreshold float64 `mapstructure:"large_threshold"`
	AliasesFile    string  `mapstructure:"aliases_file"`
}

// PDFConfig selects and limits PDF extraction.
type PDFConfig struct {
	Extractor string `mapstructure:"extractor"` // local, http or gemini
	Endpoint  string `mapstructure:"endpoint"`
	MaxPages  int    `mapstructure:"max_pages"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

// GeminiConfig holds model settings for the gemini extractor.
type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

// LedgerConfig selects the ledger backend.
type LedgerConfig struct {
	Driver           string `mapstructure:"driver"` // sqlite, bigquery or notion
	SQLitePath       string `mapstructure:"sqlite_path"`
	BigQueryProject  string `mapstructure:"bigquery_project"`
	BigQueryDataset  string `mapstructure:"bigquery_dataset"`
	NotionToken      string `mapstructure:"notion_token"`
	NotionDatabaseID string `mapstructure:"notion_database_id"`
}

// GCSConfig holds statement storage settings.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// Load reads .env, then the config file, then env. Env var overrides use prefix RECON_.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("RECON_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("recon")
	}

	v.SetEnvPrefix("RECON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.temp_dir", os.TempDir())
	v.SetDefault("server.uploads_per_minute", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("recon.large_threshold", 1000.0)
	v.SetDefault("recon.aliases_file", "")
	v.SetDefault("pdf.extractor", "local")
	v.SetDefault("pdf.endpoint", "")
	v.SetDefault("pdf.max_pages", 50)
	v.SetDefault("pdf.max_bytes", 16<<20)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.sqlite_path", "recon.db")
	v.SetDefault("ledger.bigquery_project", "")
	v.SetDefault("ledger.bigquery_dataset", "finance")
	v.SetDefault("ledger.notion_token", "")
	v.SetDefault("ledger.notion_database_id", "")
	v.SetDefault("gcs.bucket", "")
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.UploadsPerMinute < 0 {
		return fmt.Errorf("server.uploads_per_minute must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Recon.LargeThreshold < 0 {
		return fmt.Errorf("recon.large_threshold must not be negative")
	}

	switch c.PDF.Extractor {
	case "local", "gemini":
	case "http":
		if c.PDF.Endpoint == "" {
			return fmt.Errorf("pdf.endpoint is required for the http extractor")
		}
	default:
		return fmt.Errorf("pdf.extractor must be local, http or gemini, got %q", c.PDF.Extractor)
	}

	switch c.Ledger.Driver {
	case "sqlite":
		if c.Ledger.SQLitePath == "" {
			return fmt.Errorf("ledger.sqlite_path is required for the sqlite driver")
		}
	case "bigquery":
		if c.Ledger.BigQueryProject == "" || c.Ledger.BigQueryDataset == "" {
			return fmt.Errorf("ledger.bigquery_project and ledger.bigquery_dataset are required for the bigquery driver")
		}
	case "notion":
		if c.Ledger.NotionToken == "" || c.Ledger.NotionDatabaseID == "" {
			return fmt.Errorf("ledger.notion_token and ledger.notion_database_id are required for the notion driver")
		}
	default:
		return fmt.Errorf("ledger.driver must be sqlite, bigquery or notion, got %q", c.Ledger.Driver)
	}
	return nil
}

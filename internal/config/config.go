package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"spaar/internal/csvimport"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DataDir      string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// CSV dialect and rule tables
	CSVDelimiter   string
	CSVHasHeader   bool
	CSVEncoding    string
	RulesFile      string
	AutoCategorize bool
	ImportTimeout  time.Duration

	// Insights
	AnalysisWindowDays int
	AnomalyZThreshold  float64
	AnalysisCacheSize  int
	AnalysisCacheTTL   time.Duration

	// Google Sheets export, enabled when a spreadsheet id is set
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	LogLevel string
	LogJSON  bool
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spaar.db"),
		DataDir:      getEnv("DATA_DIR", "data"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spaar"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "import_completed"),

		CSVDelimiter:   getEnv("CSV_DELIMITER", ";"),
		CSVHasHeader:   getEnvBool("CSV_HAS_HEADER", true),
		CSVEncoding:    getEnv("CSV_ENCODING", "utf-8"),
		RulesFile:      getEnv("RULES_FILE", ""),
		AutoCategorize: getEnvBool("AUTO_CATEGORIZE", true),
		ImportTimeout:  getEnvDuration("IMPORT_TIMEOUT", time.Minute),

		AnalysisWindowDays: getEnvInt("ANALYSIS_WINDOW_DAYS", 30),
		AnomalyZThreshold:  getEnvFloat("ANOMALY_Z_THRESHOLD", 2.0),
		AnalysisCacheSize:  getEnvInt("ANALYSIS_CACHE_SIZE", 32),
		AnalysisCacheTTL:   getEnvDuration("ANALYSIS_CACHE_TTL", 10*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transacties"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// SheetsEnabled reports whether imported batches are mirrored to a sheet.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		errors = append(errors, fmt.Sprintf("invalid CSV delimiter '%s': must be a single character", c.CSVDelimiter))
	} else if r := c.Delimiter(); r == '"' || r == '\n' || r == '\r' {
		errors = append(errors, fmt.Sprintf("invalid CSV delimiter %q", r))
	}
	if !csvimport.SupportedEncoding(c.CSVEncoding) {
		errors = append(errors, fmt.Sprintf("unsupported CSV encoding '%s'", c.CSVEncoding))
	}
	if c.RulesFile != "" {
		if _, err := os.Stat(c.RulesFile); err != nil {
			errors = append(errors, fmt.Sprintf("rules file is not readable: %s", c.RulesFile))
		}
	}
	if c.ImportTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid import timeout %v: must not be negative", c.ImportTimeout))
	}

	if c.AnalysisWindowDays < 1 || c.AnalysisWindowDays > 3660 {
		errors = append(errors, fmt.Sprintf("invalid analysis window %d: must be between 1 and 3660 days", c.AnalysisWindowDays))
	}
	if c.AnomalyZThreshold <= 0 {
		errors = append(errors, fmt.Sprintf("invalid anomaly threshold %v: must be positive", c.AnomalyZThreshold))
	}
	if c.AnalysisCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid analysis cache size %d: must be at least 1", c.AnalysisCacheSize))
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet id is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory    = "memory"
	StorageSQLite    = "sqlite"
	StorageFirestore = "firestore"

	LLMNone   = "none"
	LLMMock   = "mock"
	LLMVertex = "vertex"
)

type Config struct {
	Port string `yaml:"port"`

	StorageBackend string `yaml:"storage_backend"` // memory, sqlite or firestore
	SQLitePath     string `yaml:"sqlite_path"`

	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
	ModelName    string `yaml:"model_name"`

	LLMBackend string `yaml:"llm_backend"` // none, mock or vertex

	CalendarFixtures string `yaml:"calendar_fixtures"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:           "8080",
		StorageBackend: StorageMemory,
		SQLitePath:     "huddle.db",
		GCPLocation:    "us-central1",
		ModelName:      "gemini-2.5-flash-lite",
		LLMBackend:     LLMNone,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load builds the config from defaults, then the YAML file at path (if
// any), then HUDDLE_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideFromEnv(&c.Port, "HUDDLE_PORT")
	overrideFromEnv(&c.StorageBackend, "HUDDLE_STORAGE_BACKEND")
	overrideFromEnv(&c.SQLitePath, "HUDDLE_SQLITE_PATH")
	overrideFromEnv(&c.GCPProjectID, "HUDDLE_GCP_PROJECT")
	overrideFromEnv(&c.GCPLocation, "HUDDLE_GCP_LOCATION")
	overrideFromEnv(&c.ModelName, "HUDDLE_MODEL_NAME")
	overrideFromEnv(&c.LLMBackend, "HUDDLE_LLM_BACKEND")
	overrideFromEnv(&c.CalendarFixtures, "HUDDLE_CALENDAR_FIXTURES")
	overrideFromEnv(&c.LogLevel, "HUDDLE_LOG_LEVEL")
	overrideFromEnv(&c.LogFormat, "HUDDLE_LOG_FORMAT")
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects unknown backends and missing GCP settings.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageFirestore:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path must be set for the sqlite storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.LLMBackend {
	case LLMNone, LLMMock, LLMVertex:
	default:
		return fmt.Errorf("unknown llm backend %q", c.LLMBackend)
	}

	needsGCP := c.StorageBackend == StorageFirestore || c.LLMBackend == LLMVertex
	if needsGCP && c.GCPProjectID == "" {
		return fmt.Errorf("HUDDLE_GCP_PROJECT must be set for firestore storage or the vertex llm backend")
	}

	if c.Port == "" {
		return fmt.Errorf("port must be set")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"offer-classifier/internal/embedding"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Type string `yaml:"type"` // "postgres" or "sqlite"
		URL  string `yaml:"url"`  // PostgreSQL DSN
		Path string `yaml:"path"` // SQLite file
	} `yaml:"database"`

	Embedding struct {
		Providers               []embedding.ProviderConfig `yaml:"providers"`
		MaxFailuresBeforeSwitch int                        `yaml:"max_failures_before_switch"`
	} `yaml:"embedding"`

	Normalizer struct {
		LemmaDictionary string `yaml:"lemma_dictionary"`
	} `yaml:"normalizer"`

	Labeling struct {
		SimilarityThreshold *float64      `yaml:"similarity_threshold"`
		Schedule            string        `yaml:"schedule"`
		Timeout             time.Duration `yaml:"timeout"`
	} `yaml:"labeling"`

	Training struct {
		Models       []string `yaml:"models"`
		Seed         int64    `yaml:"seed"`
		TestFraction float64  `yaml:"test_fraction"`
		Parallelism  int      `yaml:"parallelism"`
	} `yaml:"training"`

	Artifacts struct {
		Backend         string `yaml:"backend"` // "file" or "gcs"
		Dir             string `yaml:"dir"`
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"artifacts"`

	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// Threshold returns the configured similarity threshold, 0.8 when unset.
func (c *Config) Threshold() float64 {
	if c.Labeling.SimilarityThreshold == nil {
		return 0.8
	}
	return *c.Labeling.SimilarityThreshold
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config := &Config{}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/offers.db"
	}
	c.Database.URL = os.ExpandEnv(c.Database.URL)

	if c.Embedding.MaxFailuresBeforeSwitch == 0 {
		c.Embedding.MaxFailuresBeforeSwitch = 3
	}
	// Expand environment variables in provider API keys
	for i := range c.Embedding.Providers {
		c.Embedding.Providers[i].APIKey = os.ExpandEnv(c.Embedding.Providers[i].APIKey)
	}

	if c.Labeling.Timeout == 0 {
		c.Labeling.Timeout = time.Hour
	}

	if c.Training.Seed == 0 {
		c.Training.Seed = 42
	}
	if c.Training.TestFraction == 0 {
		c.Training.TestFraction = 0.2
	}
	if c.Training.Parallelism == 0 {
		c.Training.Parallelism = 4
	}

	if c.Artifacts.Backend == "" {
		c.Artifacts.Backend = "file"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "./ml_models"
	}
	c.Artifacts.CredentialsFile = os.ExpandEnv(c.Artifacts.CredentialsFile)
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.Type == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for postgres")
	}

	switch c.Artifacts.Backend {
	case "file":
	case "gcs":
		if c.Artifacts.Bucket == "" {
			return fmt.Errorf("artifacts.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unsupported artifact backend: %s", c.Artifacts.Backend)
	}

	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("training.test_fraction must be in (0, 1), got %v", c.Training.TestFraction)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ROSTERLY"

// Config holds the runtime settings for the API server. Values load in
// three layers: defaults, then an optional YAML file, then ROSTERLY_*
// environment variables. Later layers win.
type Config struct {
	BindAddr        string        `yaml:"bindAddr"        split_words:"true"`
	Port            uint          `yaml:"port"`
	CatalogPath     string        `yaml:"catalogPath"     split_words:"true"`
	PgDSN           string        `yaml:"pgDsn"           envconfig:"ROSTERLY_PG_DSN"`
	RecommenderURL  string        `yaml:"recommenderUrl"  envconfig:"ROSTERLY_RECOMMENDER_URL"`
	RecommenderKey  string        `yaml:"recommenderKey"  envconfig:"ROSTERLY_RECOMMENDER_KEY"`
	DevTokens       bool          `yaml:"devTokens"       split_words:"true"`
	AccessTokenTTL  time.Duration `yaml:"accessTokenTtl"  envconfig:"ROSTERLY_ACCESS_TOKEN_TTL"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
	MigrationsDir   string        `yaml:"migrationsDir"   split_words:"true"`
	SeedsDir        string        `yaml:"seedsDir"        split_words:"true"`
	Version         string        `yaml:"version"`
}

func defaults() *Config {
	return &Config{
		BindAddr:        "0.0.0.0",
		Port:            8080,
		CatalogPath:     "ops/config/roles.yaml",
		AccessTokenTTL:  15 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		MigrationsDir:   "ops/migrations/sql",
		SeedsDir:        "ops/migrations/seeds",
		Version:         "dev",
	}
}

// Load builds the config from defaults, the optional YAML file at path,
// and the environment. An empty path skips the file layer; a missing
// file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// ListenAddr joins the bind address and port for net/http.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// Package config loads settings from an optional YAML file with environment
// overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	dataDirEnv      = "HOMEPRESS_DATA_DIR"
	siteDirEnv      = "HOMEPRESS_SITE_DIR"
	baseURLEnv      = "HOMEPRESS_BASE_URL"
	genURLEnv       = "HOMEPRESS_GEN_URL"
	genModelEnv     = "HOMEPRESS_GEN_MODEL"
	associateTagEnv = "HOMEPRESS_ASSOCIATE_TAG"
)

// Config holds settings shared across the automation commands.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Site       SiteConfig       `yaml:"site"`
	Generation GenerationConfig `yaml:"generation"`
	Affiliate  AffiliateConfig  `yaml:"affiliate"`
	Automation AutomationConfig `yaml:"automation"`
	Server     ServerConfig     `yaml:"server"`
}

// StorageConfig locates the SQLite databases.
type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

// SiteConfig describes the static site output.
type SiteConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"baseUrl"`
}

// GenerationConfig points at the content generation service. An empty URL
// disables generation; the compiler falls back to templates.
type GenerationConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// AffiliateConfig carries the Amazon associate settings.
type AffiliateConfig struct {
	AssociateTag string `yaml:"associateTag"`
}

// AutomationConfig tunes the full automation cycle.
type AutomationConfig struct {
	IdeasPerRun           int     `yaml:"ideasPerRun"`
	ComposeLimit          int     `yaml:"composeLimit"`
	PostsPerWeek          int     `yaml:"postsPerWeek"`
	PriceThresholdPercent float64 `yaml:"priceThresholdPercent"`
	IndexLimit            int     `yaml:"indexLimit"`
	IntervalHours         int     `yaml:"intervalHours"`
}

// ServerConfig tunes the preview server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

func defaults() Config {
	return Config{
		Storage: StorageConfig{DataDir: "data"},
		Site: SiteConfig{
			Dir:     "site",
			BaseURL: "https://virginiahomeessentials.com",
		},
		Generation: GenerationConfig{
			Model: "mistral-nemo",
		},
		Affiliate: AffiliateConfig{AssociateTag: "vahome-20"},
		Automation: AutomationConfig{
			IdeasPerRun:           10,
			ComposeLimit:          5,
			PostsPerWeek:          3,
			PriceThresholdPercent: 10,
			IndexLimit:            50,
			IntervalHours:         24,
		},
		Server: ServerConfig{Port: 4000},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// given), and HOMEPRESS_* environment variables, in that order of
// precedence.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(siteDirEnv); v != "" {
		c.Site.Dir = v
	}
	if v := os.Getenv(baseURLEnv); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv(genURLEnv); v != "" {
		c.Generation.URL = v
	}
	if v := os.Getenv(genModelEnv); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv(associateTagEnv); v != "" {
		c.Affiliate.AssociateTag = v
	}
}

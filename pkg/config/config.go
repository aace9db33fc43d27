// Package config contains the definition of the application config
// structure and the logic required to load and update it.
package config

import (
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultSite is used when neither the environment nor the config file
// names a site.
const DefaultSite = "us1.perchdata.com"

// Environment overrides.
const (
	// SiteEnvVar overrides the configured site.
	SiteEnvVar = "PERCH_SITE"

	// BearerTokenEnvVar supplies an explicit bearer token, bypassing the
	// credential store entirely.
	BearerTokenEnvVar = "PERCH_BEARER_TOKEN"
)

// Config represents the configuration of the application.
type Config struct {
	// Site is the regional deployment all commands talk to. Every site has
	// its own OAuth registration and token.
	Site string `yaml:"site" json:"site"`

	// OutputFormat is the default output format (json, yaml, or table).
	OutputFormat string `yaml:"output_format,omitempty" json:"output_format,omitempty"`
}

// defaultPathGenerator generates the default config path using xdg
var defaultPathGenerator = func() (string, error) {
	return xdg.ConfigFile("perch/config.yaml")
}

// getConfigPath is the current path generator, can be replaced in tests
var getConfigPath = defaultPathGenerator

func createNewConfigWithDefaults() Config {
	return Config{
		Site:         DefaultSite,
		OutputFormat: "json",
	}
}

// LoadOrCreateConfig fetches the application configuration, creating it
// with default values if the file does not exist yet.
func LoadOrCreateConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config path: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}

		config := createNewConfigWithDefaults()
		if err := persist(configPath, &config); err != nil {
			return nil, err
		}
		return &config, nil
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if config.Site == "" {
		config.Site = DefaultSite
	}

	return &config, nil
}

// UpdateConfig applies an edit to the config under the package lock and
// persists the result.
func UpdateConfig(edit func(*Config)) error {
	lock.Lock()
	defer lock.Unlock()

	config, err := LoadOrCreateConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	edit(config)

	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config path: %w", err)
	}
	if err := persist(configPath, config); err != nil {
		return err
	}

	appConfig = config
	return nil
}

func persist(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ResolvedSite returns the site to use, preferring the environment
// override over the config file.
func (c *Config) ResolvedSite() string {
	if site := os.Getenv(SiteEnvVar); site != "" {
		return site
	}
	if c.Site != "" {
		return c.Site
	}
	return DefaultSite
}

// BearerTokenOverride returns the explicitly configured bearer token, if
// any. It always wins over stored credentials.
func BearerTokenOverride() string {
	return os.Getenv(BearerTokenEnvVar)
}

package config

import (
	"sync"

	"github.com/perchlabs/perch/pkg/logger"
)

// Singleton value - should only be written to by getSingletonConfig and
// UpdateConfig.
var appConfig *Config

var lock = &sync.RWMutex{}

// SetSingletonConfig allows tests to pre-initialize the singleton with test
// data so it never loads the real config file.
func SetSingletonConfig(cfg *Config) {
	lock.Lock()
	defer lock.Unlock()
	appConfig = cfg
}

// ResetSingleton clears the singleton - useful for test cleanup
func ResetSingleton() {
	lock.Lock()
	defer lock.Unlock()
	appConfig = nil
}

// GetConfig returns the application configuration, loading it on first use.
// Loading falls back to defaults when the file is unreadable so a corrupt
// config never makes the CLI unusable.
func GetConfig() *Config {
	lock.RLock()
	if appConfig != nil {
		defer lock.RUnlock()
		return appConfig
	}
	lock.RUnlock()

	lock.Lock()
	defer lock.Unlock()
	if appConfig == nil {
		config, err := LoadOrCreateConfig()
		if err != nil {
			logger.Warnf("error loading configuration, using defaults: %v", err)
			fallback := createNewConfigWithDefaults()
			config = &fallback
		}
		appConfig = config
	}
	return appConfig
}

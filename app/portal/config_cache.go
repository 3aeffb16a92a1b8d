package portal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	portalsDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(portalsDir string) *ConfigCache {
	return &ConfigCache{
		portalsDir: portalsDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.portalsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.portalsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive portal name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		portalName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(portalName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Portal configuration loaded", "portal", portalName, "enabled", config.Settings.Enabled, "sync_interval", config.Settings.SyncInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(portalName string) (*Config, error) {
	configFile := cc.getConfigFilePath(portalName)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set portal name from parameter
	config.Name = portalName

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(portalName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[portalName]
	if !ok {
		return nil, fmt.Errorf("portal config with name '%s' not found", portalName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.SyncInterval == 0 {
		config.Settings.SyncInterval = 3600
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	requiredFields := map[string]string{
		"portal name":  config.Name,
		"portal slug":  config.Portal,
		"source group": config.SourceGroup,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if config.Settings.SyncInterval < 0 {
		return fmt.Errorf("sync interval must be non-negative")
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(portalName string) string {
	return filepath.Join(cc.portalsDir, portalName+".yml")
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

func (cm *ConfigManager) load() error {
	if cm.configPath == "" {
		return os.ErrNotExist
	}

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return err
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(cm.configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			if err := json.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse config file (tried YAML and JSON)")
			}
		}
	}

	cm.applyDefaults(&config)

	if info, err := os.Stat(cm.configPath); err == nil {
		cm.lastMod = info.ModTime()
	}

	cm.config = &config
	log.WithField("path", cm.configPath).Info("configuration loaded")

	return nil
}

// applyDefaults fills zero-valued fields that must never be zero.
func (cm *ConfigManager) applyDefaults(config *FileConfig) {
	def := cm.defaultConfig()
	if config.Host == "" {
		config.Host = def.Host
	}
	if config.Port == 0 {
		config.Port = def.Port
	}
	if config.BedrockRegion == "" {
		config.BedrockRegion = def.BedrockRegion
	}
	if config.InvokeTimeoutSec == 0 {
		config.InvokeTimeoutSec = def.InvokeTimeoutSec
	}
	if config.InvokeConcurrency == 0 {
		config.InvokeConcurrency = def.InvokeConcurrency
	}
	if config.TranscribePollMs == 0 {
		config.TranscribePollMs = def.TranscribePollMs
	}
	if config.TranscribeTimeoutSec == 0 {
		config.TranscribeTimeoutSec = def.TranscribeTimeoutSec
	}
	if config.StorageBackend == "" {
		config.StorageBackend = def.StorageBackend
	}
	if config.StorageBaseDir == "" {
		config.StorageBaseDir = def.StorageBaseDir
	}
	if config.RedisAddr == "" {
		config.RedisAddr = def.RedisAddr
	}
	if config.RedisPrefix == "" {
		config.RedisPrefix = def.RedisPrefix
	}
	if config.DialTimeoutSec == 0 {
		config.DialTimeoutSec = def.DialTimeoutSec
	}
	if config.TLSHandshakeTimeoutSec == 0 {
		config.TLSHandshakeTimeoutSec = def.TLSHandshakeTimeoutSec
	}
	if config.ResponseHeaderTimeoutSec == 0 {
		config.ResponseHeaderTimeoutSec = def.ResponseHeaderTimeoutSec
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = def.RateLimitRPS
	}
	if config.RateLimitBurst == 0 {
		config.RateLimitBurst = def.RateLimitBurst
	}
}

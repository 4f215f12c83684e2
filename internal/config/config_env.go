package config

import (
	"os"
	"strings"
)

func (cm *ConfigManager) mergeEnvVars() {
	if cm.config == nil {
		cm.config = cm.defaultConfig()
	}

	if v := os.Getenv("HOST"); v != "" {
		cm.config.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := parsePort(v); err == nil {
			cm.config.Port = port
		}
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		cm.config.APIKeys = out
	}
	if v := os.Getenv("BEDROCK_ENDPOINT"); v != "" {
		cm.config.BedrockEndpoint = v
	}
	if v := os.Getenv("BEDROCK_REGION"); v != "" {
		cm.config.BedrockRegion = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" && cm.config.BedrockAccessKey == "" {
		cm.config.BedrockAccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" && cm.config.BedrockSecretKey == "" {
		cm.config.BedrockSecretKey = v
	}
	if v := os.Getenv("INVOKE_TIMEOUT_SEC"); v != "" {
		if n, err := parseInt(v); err == nil && n > 0 {
			cm.config.InvokeTimeoutSec = n
		}
	}
	if v := os.Getenv("TRANSCRIBE_ENDPOINT"); v != "" {
		cm.config.TranscribeEndpoint = v
	}
	if v := os.Getenv("TRANSLATE_ENDPOINT"); v != "" {
		cm.config.TranslateEndpoint = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cm.config.StorageBackend = strings.ToLower(v)
	}
	if v := os.Getenv("STORAGE_BASE_DIR"); v != "" {
		cm.config.StorageBaseDir = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cm.config.S3Bucket = v
	}
	if v := os.Getenv("S3_PREFIX"); v != "" {
		cm.config.S3Prefix = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cm.config.S3Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cm.config.S3Endpoint = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cm.config.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cm.config.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := parseInt(v); err == nil {
			cm.config.RedisDB = n
		}
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		cm.config.PublicBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cm.config.Debug = !(v == "false" || v == "0")
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cm.config.LogFile = v
	}
	if v := os.Getenv("REQUEST_LOG"); v != "" {
		cm.config.RequestLog = !(v == "false" || v == "0")
	}
}

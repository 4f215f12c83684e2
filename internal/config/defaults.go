package config

// defaultConfig returns the configuration used when no file is present.
// Values match config.example.yaml.
func (cm *ConfigManager) defaultConfig() *FileConfig {
	return &FileConfig{
		Host: "0.0.0.0",
		Port: 8000,

		BedrockRegion:     "us-east-1",
		InvokeTimeoutSec:  120,
		InvokeConcurrency: 8,

		TranscribePollMs:     1500,
		TranscribeTimeoutSec: 600,

		StorageBackend: "memory",
		StorageBaseDir: "data",
		RedisAddr:      "localhost:6379",
		RedisPrefix:    "stdapi:",

		RequestLog: false,

		DialTimeoutSec:           10,
		TLSHandshakeTimeoutSec:   10,
		ResponseHeaderTimeoutSec: 120,

		RateLimitEnabled: false,
		RateLimitRPS:     20,
		RateLimitBurst:   40,
	}
}

package config

// FileConfig represents the configuration loaded from file
type FileConfig struct {
	// Server settings
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port"`
	Debug   bool   `yaml:"debug" json:"debug"`
	LogFile string `yaml:"log_file" json:"log_file"`

	// Auth settings
	APIKeys []string `yaml:"api_keys" json:"api_keys"`

	// Bedrock-compatible runtime backend
	BedrockEndpoint   string `yaml:"bedrock_endpoint" json:"bedrock_endpoint"`
	BedrockRegion     string `yaml:"bedrock_region" json:"bedrock_region"`
	BedrockAccessKey  string `yaml:"bedrock_access_key" json:"bedrock_access_key"`
	BedrockSecretKey  string `yaml:"bedrock_secret_key" json:"bedrock_secret_key"`
	InvokeTimeoutSec  int    `yaml:"invoke_timeout_sec" json:"invoke_timeout_sec"`
	InvokeConcurrency int    `yaml:"invoke_concurrency" json:"invoke_concurrency"`

	// Transcription backend
	TranscribeEndpoint    string `yaml:"transcribe_endpoint" json:"transcribe_endpoint"`
	TranscribePollMs      int    `yaml:"transcribe_poll_ms" json:"transcribe_poll_ms"`
	TranscribeTimeoutSec  int    `yaml:"transcribe_timeout_sec" json:"transcribe_timeout_sec"`
	// TranscribeLanguageOptions narrows automatic language identification
	// to a known candidate set. Empty means unrestricted.
	TranscribeLanguageOptions []string `yaml:"transcribe_language_options" json:"transcribe_language_options"`

	// Translation backend
	TranslateEndpoint string `yaml:"translate_endpoint" json:"translate_endpoint"`

	// Object storage for media staging and image delivery
	StorageBackend string `yaml:"storage_backend" json:"storage_backend"`
	StorageBaseDir string `yaml:"storage_base_dir" json:"storage_base_dir"`
	S3Bucket       string `yaml:"s3_bucket" json:"s3_bucket"`
	S3Prefix       string `yaml:"s3_prefix" json:"s3_prefix"`
	S3Region       string `yaml:"s3_region" json:"s3_region"`
	S3Endpoint     string `yaml:"s3_endpoint" json:"s3_endpoint"`
	RedisAddr      string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword  string `yaml:"redis_password" json:"redis_password"`
	RedisDB        int    `yaml:"redis_db" json:"redis_db"`
	RedisPrefix    string `yaml:"redis_prefix" json:"redis_prefix"`

	// Base URL used when returning stored images by URL
	PublicBaseURL string `yaml:"public_base_url" json:"public_base_url"`

	// Behavior settings
	RequestLog bool `yaml:"request_log" json:"request_log"`

	// Transport settings
	DialTimeoutSec           int `yaml:"dial_timeout_sec" json:"dial_timeout_sec"`
	TLSHandshakeTimeoutSec   int `yaml:"tls_handshake_timeout_sec" json:"tls_handshake_timeout_sec"`
	ResponseHeaderTimeoutSec int `yaml:"response_header_timeout_sec" json:"response_header_timeout_sec"`

	// Rate limiting
	RateLimitEnabled bool `yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitRPS     int  `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst   int  `yaml:"rate_limit_burst" json:"rate_limit_burst"`
}

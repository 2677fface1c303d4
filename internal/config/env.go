package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	Identity      IdentityConfig      `mapstructure:"identity"`
	Redis         RedisConfig         `mapstructure:"redis"`
	S3            S3Config            `mapstructure:"s3"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Env         string `mapstructure:"env"`
	Port        string `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type TranscriptionConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	Language    string `mapstructure:"language"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type ClassifierConfig struct {
	Backend      string        `mapstructure:"backend"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	OpenAI       OpenAIConfig  `mapstructure:"openai"`
	Gemini       GeminiConfig  `mapstructure:"gemini"`
	Bedrock      BedrockConfig `mapstructure:"bedrock"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type BedrockConfig struct {
	Region          string `mapstructure:"region"`
	ModelID         string `mapstructure:"model_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxTokens       int    `mapstructure:"max_tokens"`
}

type IdentityConfig struct {
	Provider       string `mapstructure:"provider"`
	SupabaseURL    string `mapstructure:"supabase_url"`
	SupabaseAPIKey string `mapstructure:"supabase_api_key"`
	JWTSecret      string `mapstructure:"jwt_secret"`
	DevUserID      string `mapstructure:"dev_user_id"`
	DevEmail       string `mapstructure:"dev_email"`
	DevPhone       string `mapstructure:"dev_phone"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
	ArchiveAudio    bool   `mapstructure:"archive_audio"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// legacyEnv lists variable names the service accepted before the sectioned
// names existed. The sectioned name wins when both are set.
var legacyEnv = map[string][]string{
	"app.port":                             {"APP_PORT", "PORT"},
	"database.dsn":                         {"DATABASE_DSN", "DATABASE_URL"},
	"transcription.api_key":                {"TRANSCRIPTION_API_KEY", "OPENAI_API_KEY"},
	"classifier.openai.api_key":            {"CLASSIFIER_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"classifier.gemini.api_key":            {"CLASSIFIER_GEMINI_API_KEY", "GEMINI_API_KEY"},
	"classifier.bedrock.region":            {"CLASSIFIER_BEDROCK_REGION", "AWS_REGION"},
	"classifier.bedrock.access_key_id":     {"CLASSIFIER_BEDROCK_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"},
	"classifier.bedrock.secret_access_key": {"CLASSIFIER_BEDROCK_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"},
	"identity.supabase_url":                {"IDENTITY_SUPABASE_URL", "SUPABASE_URL"},
	"identity.supabase_api_key":            {"IDENTITY_SUPABASE_API_KEY", "SUPABASE_ANON_KEY"},
	"identity.jwt_secret":                  {"IDENTITY_JWT_SECRET", "SUPABASE_JWT_SECRET", "JWT_ACCESS_TOKEN_SECRET"},
	"s3.region":                            {"S3_REGION", "AWS_REGION"},
	"s3.access_key_id":                     {"S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"},
	"s3.secret_access_key":                 {"S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "CallStack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("app.cors_origins", "http://localhost:3000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "./storage/logs")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:callstack.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("transcription.api_key", "")
	v.SetDefault("transcription.base_url", "")
	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.language", "")
	v.SetDefault("transcription.max_file_size", 25*1024*1024)

	v.SetDefault("classifier.backend", "bedrock")
	v.SetDefault("classifier.timeout", "15s")
	v.SetDefault("classifier.system_prompt", "")
	v.SetDefault("classifier.openai.api_key", "")
	v.SetDefault("classifier.openai.base_url", "")
	v.SetDefault("classifier.openai.model", "gpt-4o-mini")
	v.SetDefault("classifier.gemini.api_key", "")
	v.SetDefault("classifier.gemini.model", "gemini-1.5-flash")
	v.SetDefault("classifier.bedrock.region", "us-east-1")
	v.SetDefault("classifier.bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("classifier.bedrock.access_key_id", "")
	v.SetDefault("classifier.bedrock.secret_access_key", "")
	v.SetDefault("classifier.bedrock.max_tokens", 1024)

	v.SetDefault("identity.provider", "development")
	v.SetDefault("identity.supabase_url", "")
	v.SetDefault("identity.supabase_api_key", "")
	v.SetDefault("identity.jwt_secret", "")
	v.SetDefault("identity.dev_user_id", "")
	v.SetDefault("identity.dev_email", "")
	v.SetDefault("identity.dev_phone", "")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.archive_audio", false)

	v.SetDefault("rate_limit.rps", 10)
	v.SetDefault("rate_limit.burst", 20)
}

// LoadEnv reads envFile (ignored when missing) into the process environment
// and builds the configuration from defaults and environment variables, e.g.
// DATABASE_DRIVER or CLASSIFIER_BACKEND.
func LoadEnv(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Classifier.Backend) {
	case "bedrock", "openai", "gemini", "keyword":
	default:
		return fmt.Errorf("unknown classifier backend %q", c.Classifier.Backend)
	}

	switch strings.ToLower(c.Identity.Provider) {
	case "development", "jwt", "supabase":
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if c.Classifier.Timeout <= 0 {
		return errors.New("classifier.timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

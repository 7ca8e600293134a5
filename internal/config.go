package internal

import (
	"errors"
	"fmt"
	"time"

	"github.com/portfolio-cms/media_server/internal/auth"
	"github.com/portfolio-cms/media_server/internal/storage"
	"github.com/portfolio-cms/media_server/internal/tracing"
	"github.com/spf13/viper"
)

type Config struct {
	Local   bool                  `mapstructure:"local"`
	Server  ServerConfig          `mapstructure:"server"`
	Log     LogConfig             `mapstructure:"log"`
	Auth    auth.Config           `mapstructure:"auth"`
	Storage storage.BackendConfig `mapstructure:"storage"`
	Tracing tracing.Config        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int      `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// envBindings maps config keys to environment variables, in order of
// precedence.
var envBindings = map[string][]string{
	"local":                       {"LOCAL_MODE", "TINA_PUBLIC_IS_LOCAL"},
	"server.port":                 {"PORT"},
	"server.allowed_origins":      {"ALLOWED_ORIGINS"},
	"server.max_body_bytes":       {"MAX_BODY_BYTES"},
	"log.level":                   {"LOG_LEVEL"},
	"log.pretty":                  {"LOG_PRETTY"},
	"auth.mode":                   {"AUTH_MODE"},
	"auth.admin_password":         {"ADMIN_PASSWORD"},
	"auth.session_secret":         {"SESSION_SECRET", "NEXTAUTH_SECRET"},
	"auth.cookie_name":            {"SESSION_COOKIE_NAME"},
	"auth.secure_cookie":          {"SECURE_COOKIE"},
	"auth.proxy.headers":          {"PROXY_TRUST_HEADERS"},
	"auth.proxy.cookie_marker":    {"PROXY_COOKIE_MARKER"},
	"auth.proxy.assertion_header": {"PROXY_ASSERTION_HEADER"},
	"auth.proxy.assertion_secret": {"PROXY_ASSERTION_SECRET"},
	"storage.type":                {"STORAGE_TYPE"},
	"storage.media_root":          {"MEDIA_ROOT"},
	"storage.local_path":          {"STORAGE_LOCAL_PATH"},
	"storage.github.token":        {"GITHUB_PERSONAL_ACCESS_TOKEN", "GITHUB_TOKEN"},
	"storage.github.owner":        {"GITHUB_OWNER", "VERCEL_GIT_REPO_OWNER"},
	"storage.github.repo":         {"GITHUB_REPO", "VERCEL_GIT_REPO_SLUG"},
	"storage.github.branch":       {"GITHUB_BRANCH", "VERCEL_GIT_COMMIT_REF"},
	"storage.github.api_url":      {"GITHUB_API_URL"},
	"storage.github.timeout":      {"GITHUB_TIMEOUT"},
	"storage.s3.endpoint":         {"S3_ENDPOINT"},
	"storage.s3.bucket":           {"S3_BUCKET"},
	"storage.s3.access_key":       {"S3_ACCESS_KEY"},
	"storage.s3.secret_key":       {"S3_SECRET_KEY"},
	"storage.s3.region":           {"S3_REGION"},
	"storage.s3.use_ssl":          {"S3_USE_SSL"},
	"tracing.enabled":             {"TRACING_ENABLED"},
	"tracing.output":              {"TRACING_OUTPUT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("local", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 100*1024*1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.mode", string(auth.ModeSession))
	v.SetDefault("auth.cookie_name", auth.DefaultCookieName)
	v.SetDefault("auth.secure_cookie", false)
	v.SetDefault("auth.proxy.headers", []string{"X-Vercel-Id", "X-Forwarded-For"})
	v.SetDefault("auth.proxy.cookie_marker", "_vercel_jwt")
	v.SetDefault("auth.proxy.assertion_header", "X-Proxy-Assertion")
	v.SetDefault("storage.media_root", "content/uploads")
	v.SetDefault("storage.github.branch", "main")
	v.SetDefault("storage.github.api_url", "https://api.github.com")
	v.SetDefault("storage.github.timeout", 30*time.Second)
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.output", "stdout")
}

// LoadConfig reads defaults, then files/config.yaml or ./config.yaml when
// present, then the environment.
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("files")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyModeDefaults(v)
	return &config, nil
}

// applyModeDefaults derives the settings that depend on local mode.
func (c *Config) applyModeDefaults(v *viper.Viper) {
	if c.Local {
		c.Auth.Mode = auth.ModeLocal
		if c.Storage.Type == "" {
			c.Storage.Type = storage.StorageTypeLocal
		}
		if !v.IsSet("log.pretty") {
			c.Log.Pretty = true
		}
	}
	if c.Storage.Type == "" {
		c.Storage.Type = storage.StorageTypeGitHub
	}
	if c.Storage.LocalPath == "" {
		c.Storage.LocalPath = c.Storage.MediaRoot
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Storage.Validate()
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Auth     AuthConfig
	Comment  CommentConfig
	Log      LogConfig
}

// defaults 为所有可选项提供默认值，环境变量会覆盖它们。
var defaults = map[string]interface{}{
	"port":                     "8000",
	"cors_allowed_origin":      "*",
	"telegram_call_timeout":    "30s",
	"telegram_connect_timeout": "20s",
	"auth_session_ttl":         "10m",
	"auth_sweep_interval":      "1m",
	"comment_history_limit":    30,
	"comment_reply_limit":      10,
	"comment_thread_retries":   1,
	"log_level":                "info",
	"log_format":               "json",
}

// Load 依次从默认值、可选的配置文件和环境变量加载配置。
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// CONFIG_FILE 指向可选的 TOML 文件，键名与环境变量的小写形式一致；环境变量优先级更高。
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// 环境变量名统一转为小写键，例如 TELEGRAM_API_ID -> telegram_api_id；空值不覆盖默认值。
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	server, err := loadServerConfig(k)
	if err != nil {
		return nil, err
	}

	tg, err := loadTelegramConfig(k)
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig(k)
	if err != nil {
		return nil, err
	}

	comment, err := loadCommentConfig(k)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Telegram: tg,
		Auth:     auth,
		Comment:  comment,
		Log: LogConfig{
			Level:  strings.ToLower(getString(k, "log_level")),
			Format: strings.ToLower(getString(k, "log_format")),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	InternalSecret string
	CORSOrigin     string
}

// TelegramConfig 描述 Telegram 客户端配置。
type TelegramConfig struct {
	APIID          int
	APIHash        string
	CallTimeout    time.Duration
	ConnectTimeout time.Duration
}

// AuthConfig 描述登录会话的过期策略。
type AuthConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// CommentConfig 描述评论扫描的上限。
type CommentConfig struct {
	HistoryLimit  int
	ReplyLimit    int
	ThreadRetries int
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(k *koanf.Koanf) (ServerConfig, error) {
	port := getString(k, "port")
	if port == "" {
		port = "8000"
	}

	cfg := ServerConfig{
		InternalSecret: getString(k, "internal_secret"),
		CORSOrigin:     getString(k, "cors_allowed_origin"),
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		cfg.Addr = port
		return cfg, nil
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

func loadTelegramConfig(k *koanf.Koanf) (TelegramConfig, error) {
	apiID, err := parseInt(k, "telegram_api_id", 0)
	if err != nil {
		return TelegramConfig{}, err
	}

	callTimeout, err := parseDuration(k, "telegram_call_timeout")
	if err != nil {
		return TelegramConfig{}, err
	}

	connectTimeout, err := parseDuration(k, "telegram_connect_timeout")
	if err != nil {
		return TelegramConfig{}, err
	}

	return TelegramConfig{
		APIID:          apiID,
		APIHash:        getString(k, "telegram_api_hash"),
		CallTimeout:    callTimeout,
		ConnectTimeout: connectTimeout,
	}, nil
}

func loadAuthConfig(k *koanf.Koanf) (AuthConfig, error) {
	ttl, err := parseDuration(k, "auth_session_ttl")
	if err != nil {
		return AuthConfig{}, err
	}

	sweep, err := parseDuration(k, "auth_sweep_interval")
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{SessionTTL: ttl, SweepInterval: sweep}, nil
}

func loadCommentConfig(k *koanf.Koanf) (CommentConfig, error) {
	history, err := parseInt(k, "comment_history_limit", 30)
	if err != nil {
		return CommentConfig{}, err
	}

	replies, err := parseInt(k, "comment_reply_limit", 10)
	if err != nil {
		return CommentConfig{}, err
	}

	retries, err := parseInt(k, "comment_thread_retries", 1)
	if err != nil {
		return CommentConfig{}, err
	}
	if retries < 0 {
		retries = 0
	}

	return CommentConfig{HistoryLimit: history, ReplyLimit: replies, ThreadRetries: retries}, nil
}

func getString(k *koanf.Koanf, key string) string {
	return strings.TrimSpace(k.String(key))
}

func parseInt(k *koanf.Koanf, key string, defaultValue int) (int, error) {
	raw := getString(k, key)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), raw, err)
	}
	return val, nil
}

func parseDuration(k *koanf.Koanf, key string) (time.Duration, error) {
	raw := getString(k, key)
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", strings.ToUpper(key), raw)
	}
	return val, nil
}

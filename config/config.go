package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Import   ImportConfig   `mapstructure:"import"`
	Bitrix   BitrixConfig   `mapstructure:"bitrix"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Contact  ContactConfig  `mapstructure:"contact"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// set only when a reverse proxy overwrites X-Forwarded-For
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type DatabaseConfig struct {
	// postgres or sqlite3
	Driver       string `mapstructure:"driver"`
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// DSN returns URL when set, otherwise builds a Postgres URL from the parts
// with the credentials escaped.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

type ImportConfig struct {
	MaxBatch int `mapstructure:"max_batch"`
}

type BitrixConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatId   string `mapstructure:"chat_id"`
	APIURL   string `mapstructure:"api_url"`
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatId != ""
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	To       string `mapstructure:"to"`
}

func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Brokers[0] != ""
}

type ContactConfig struct {
	// requests per minute per client IP; 0 disables the limit
	RateLimit int `mapstructure:"rate_limit"`
}

type AdminConfig struct {
	BootstrapUser     string `mapstructure:"bootstrap_user"`
	BootstrapPassword string `mapstructure:"bootstrap_password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.max_body_bytes", 10<<20)
	v.SetDefault("http.trust_proxy", false)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "dongfeng")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/storefront.log")

	v.SetDefault("import.max_batch", 1000)
	v.SetDefault("bitrix.timeout", "15s")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")

	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.user", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.to", "")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "storefront.events")

	v.SetDefault("contact.rate_limit", 5)

	v.SetDefault("admin.bootstrap_user", "")
	v.SetDefault("admin.bootstrap_password", "")
}

// Load reads an optional .env file and then the process environment. Keys
// map to variables by upper-casing and replacing dots, e.g. database.url is
// DATABASE_URL.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Import.MaxBatch < 1 {
		return fmt.Errorf("import.max_batch must be positive, got %d", c.Import.MaxBatch)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Email.To == "" {
		c.Email.To = c.Email.User
	}
	return nil
}

package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, int64(10<<20), cfg.HTTP.MaxBodyBytes)
	assert.False(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://postgres:@localhost:5432/dongfeng?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 1000, cfg.Import.MaxBatch)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Telegram.Enabled())
	assert.False(t, cfg.Email.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:shop.db")
	t.Setenv("IMPORT_MAX_BATCH", "250")
	t.Setenv("HTTP_TRUST_PROXY", "true")
	t.Setenv("HTTP_MAX_BODY_BYTES", "4096")
	t.Setenv("BITRIX_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_USER", "shop@example.com")
	t.Setenv("EMAIL_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "file:shop.db", cfg.Database.DSN())
	assert.Equal(t, 250, cfg.Import.MaxBatch)
	assert.True(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, int64(4096), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, 3*time.Second, cfg.Bitrix.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Telegram.Enabled())
	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, "shop@example.com", cfg.Email.To)
}

func TestDSNEscapesCredentials(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "shop@admin",
		Password: "p@ss:w/rd?#",
		Name:     "dongfeng",
		SSLMode:  "require",
	}

	u, err := url.Parse(c.DSN())
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/dongfeng", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "shop@admin", u.User.Username())
	pass, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss:w/rd?#", pass)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported database driver")
}

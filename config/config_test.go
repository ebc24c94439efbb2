package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Database.UseSSL)
	assert.Equal(t, BackendNone, cfg.MQ.Backend)
	assert.Equal(t, "users.registered", cfg.MQ.EventsChannel)
	assert.Equal(t, BackendNone, cfg.Storage.Backend)
	assert.Equal(t, "secrets/message.json", cfg.Storage.SecretKey)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("MQ_BACKEND", "RabbitMQ")
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RABBITMQ_QUEUE_DURABLE", "not-a-bool")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, BackendRabbitMQ, cfg.MQ.Backend)
	assert.Equal(t, BackendGCS, cfg.Storage.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.MQ.RabbitMQ.QueueDurable)
}

func TestLoadConfigPortFallback(t *testing.T) {
	t.Setenv("PORT", "7070")

	cfg := LoadConfig()

	assert.Equal(t, 7070, cfg.ServerPort)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Asia/Manila", cfg.Queue.Timezone)
	assert.Equal(t, 15, cfg.Queue.AvgServiceMinutes)
	assert.Equal(t, 3, cfg.Queue.MaxAdmitAttempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLINIC_TIMEZONE", "UTC")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("QUEUE_SWEEP_ON_START", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Queue.Timezone)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Queue.SweepOnStart)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsZeroAttempts(t *testing.T) {
	t.Setenv("QUEUE_MAX_ADMIT_ATTEMPTS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		DBName: "clinic_queue", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=app password=pw dbname=clinic_queue sslmode=disable",
		cfg.DSN(),
	)
}

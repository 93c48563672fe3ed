package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "CACHE_TTL", "DISPATCH_BACKEND", "RETRY_ATTEMPTS", "RETRY_DELAY", "RECONCILE_INTERVAL", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, 150*time.Second, cfg.CacheTTL)
	assert.Equal(t, BackendKafka, cfg.DispatchBackend)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("DISPATCH_BACKEND", " LOCAL ")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("PROCESSING_DELAY", "0s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, BackendLocal, cfg.DispatchBackend)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Zero(t, cfg.ProcessingDelay)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	t.Setenv("RETRY_ATTEMPTS", "-1")
	t.Setenv("RETRY_DELAY", "soon")
	t.Setenv("WORKER_COUNT", "many")

	cfg := Load()

	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 8, cfg.WorkerCount)
}

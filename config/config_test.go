package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "KAFKA_BROKERS", "DEDUP_WINDOW_HOURS", "MAX_BATCH_SIZE", "REDIS_URL"} {
		t.Setenv(k, "")
	}

	cfg := Parse()

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 48*time.Hour, cfg.DedupWindow)
	assert.Equal(t, 100, cfg.MaxBatchSize)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "pixel-events", cfg.KafkaTopic)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("JWT_TTL_MINUTES", "5")
	t.Setenv("MAX_BATCH_SIZE", "not-a-number")

	cfg := Parse()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 100, cfg.MaxBatchSize, "invalid ints fall back to the default")
}

func TestParseIgnoresNonPositiveDurations(t *testing.T) {
	t.Setenv("TRACK_TIMEOUT_SECONDS", "0")
	t.Setenv("DEDUP_WINDOW_HOURS", "-3")
	t.Setenv("JWT_TTL_MINUTES", "0")

	cfg := Parse()

	assert.Equal(t, 15*time.Second, cfg.TrackTimeout)
	assert.Equal(t, 48*time.Hour, cfg.DedupWindow)
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)
}

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("px-1", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "px-1", claims.PixelID)
	assert.Equal(t, "px-1", claims.Subject)
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateJWT("px-1", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT(token, []byte("other-secret"))
	assert.Error(t, err)

	expired, err := GenerateJWT("px-1", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, testSecret)
	assert.Error(t, err)
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := GenerateJWT("px-1", nil, time.Hour)
	assert.Error(t, err)
}

func TestIsValidInterval(t *testing.T) {
	assert.True(t, IsValidInterval("Day"))
	assert.False(t, IsValidInterval("day"))
	assert.False(t, IsValidInterval("Day; DROP TABLE pixel_events"))
}

func TestParseTimeRange(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	start, end, err := ParseTimeRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, now, end)
	assert.Equal(t, now.Add(-DefaultStatsWindow), start)

	start, end, err = ParseTimeRange("2026-10-01T00:00:00Z", "2026-10-02T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = ParseTimeRange("yesterday", "", now)
	assert.ErrorContains(t, err, "'start'")

	_, _, err = ParseTimeRange("", "2026-13-01", now)
	assert.ErrorContains(t, err, "'end'")

	_, _, err = ParseTimeRange("2026-10-02T00:00:00Z", "2026-10-01T00:00:00Z", now)
	assert.Error(t, err)
}

package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeltrack/api/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.PixelEvent
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, ev models.PixelEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type memoryDeduper struct {
	seen     map[string]bool
	released []string
	err      error
}

func newMemoryDeduper() *memoryDeduper { return &memoryDeduper{seen: map[string]bool{}} }

func (d *memoryDeduper) Claim(_ context.Context, pixelID, eventID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	key := pixelID + "/" + eventID
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memoryDeduper) Release(_ context.Context, pixelID, eventID string) error {
	key := pixelID + "/" + eventID
	delete(d.seen, key)
	d.released = append(d.released, key)
	return nil
}

var fixedNow = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, enabled bool, opts ...Option) (*Tracker, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	opts = append([]Option{
		WithSinks(sink),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "generated-id" }),
	}, opts...)
	tr, err := New(models.Configuration{PixelID: "px-1", Enabled: enabled}, opts...)
	require.NoError(t, err)
	return tr, sink
}

func TestNewRequiresPixelID(t *testing.T) {
	_, err := New(models.Configuration{Enabled: true})
	assert.ErrorIs(t, err, models.ErrMissingPixelID)
}

func TestTrackDisabledByDefault(t *testing.T) {
	tr, sink := newTestTracker(t, false)

	_, err := tr.Track(context.Background(), models.EventPageView, nil, nil, Source{})
	assert.ErrorIs(t, err, ErrTrackingDisabled)
	assert.Empty(t, sink.events)

	tr.Enable()
	assert.True(t, tr.Enabled())
	_, err = tr.Track(context.Background(), models.EventPageView, nil, nil, Source{})
	require.NoError(t, err)
	assert.Len(t, sink.events, 1)

	tr.Disable()
	_, err = tr.Track(context.Background(), models.EventPageView, nil, nil, Source{})
	assert.ErrorIs(t, err, ErrTrackingDisabled)
}

func TestTrackDeliversEvent(t *testing.T) {
	tr, sink := newTestTracker(t, true)
	props := &models.EventProperties{
		Value:      models.Float(30),
		Currency:   "USD",
		ContentIDs: models.NumericContentIDs(1, 2),
	}
	src := Source{URL: "https://shop.example/checkout", UserAgent: "test-agent", IPAddress: "10.0.0.1"}

	ev, err := tr.Track(context.Background(), models.EventPurchase, props, nil, src)
	require.NoError(t, err)

	assert.Equal(t, "generated-id", ev.EventID)
	assert.Equal(t, "px-1", ev.PixelID)
	assert.Equal(t, "Purchase", ev.EventName)
	assert.False(t, ev.Custom)
	assert.Equal(t, fixedNow, ev.Timestamp)
	assert.Equal(t, src.URL, ev.SourceURL)
	require.Len(t, sink.events, 1)
	assert.Equal(t, ev, sink.events[0])
}

func TestTrackKeepsCallerEventIDAndTimestamp(t *testing.T) {
	tr, _ := newTestTracker(t, true)
	ts := time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC)

	ev, err := tr.Track(context.Background(), models.EventLead, nil, &models.EventMeta{EventID: "lead-7"}, Source{Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, "lead-7", ev.EventID)
	assert.Equal(t, ts, ev.Timestamp)
}

func TestTrackRejectsUnknownNameAndBadProperties(t *testing.T) {
	tr, sink := newTestTracker(t, true)

	_, err := tr.Track(context.Background(), models.EventName("Refund"), nil, nil, Source{})
	assert.ErrorIs(t, err, models.ErrUnknownEventName)

	_, err = tr.Track(context.Background(), models.EventPurchase, &models.EventProperties{Currency: "XYZ"}, nil, Source{})
	assert.ErrorIs(t, err, models.ErrUnrecognizedCurrency)

	assert.Empty(t, sink.events)
}

func TestTrackCustom(t *testing.T) {
	tr, sink := newTestTracker(t, true)

	ev, err := tr.TrackCustom(context.Background(), "  ShareArticle ", nil, nil, Source{})
	require.NoError(t, err)
	assert.Equal(t, "ShareArticle", ev.EventName)
	assert.True(t, ev.Custom)

	_, err = tr.TrackCustom(context.Background(), "Purchase", nil, nil, Source{})
	assert.ErrorIs(t, err, ErrStandardNameAsCustom)

	_, err = tr.TrackCustom(context.Background(), "", nil, nil, Source{})
	assert.ErrorIs(t, err, ErrInvalidCustomName)

	_, err = tr.TrackCustom(context.Background(), strings.Repeat("x", MaxCustomEventNameLen+1), nil, nil, Source{})
	assert.ErrorIs(t, err, ErrInvalidCustomName)

	assert.Len(t, sink.events, 1)
}

func TestTrackDeduplicatesCallerEventIDs(t *testing.T) {
	dedup := newMemoryDeduper()
	tr, sink := newTestTracker(t, true, WithDeduper(dedup))
	meta := &models.EventMeta{EventID: "order-1"}

	_, err := tr.Track(context.Background(), models.EventPurchase, nil, meta, Source{})
	require.NoError(t, err)

	_, err = tr.Track(context.Background(), models.EventPurchase, nil, meta, Source{})
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	// generated ids never hit the deduper
	_, err = tr.Track(context.Background(), models.EventPageView, nil, nil, Source{})
	require.NoError(t, err)
	_, err = tr.Track(context.Background(), models.EventPageView, nil, nil, Source{})
	require.NoError(t, err)

	assert.Len(t, sink.events, 3)
}

func TestTrackProceedsWhenDeduperFails(t *testing.T) {
	dedup := newMemoryDeduper()
	dedup.err = errors.New("redis unavailable")
	tr, sink := newTestTracker(t, true, WithDeduper(dedup))

	_, err := tr.Track(context.Background(), models.EventPurchase, nil, &models.EventMeta{EventID: "order-2"}, Source{})
	require.NoError(t, err)
	assert.Len(t, sink.events, 1)
}

func TestTrackReleasesClaimOnDeliveryFailure(t *testing.T) {
	dedup := newMemoryDeduper()
	failing := &recordingSink{err: errors.New("clickhouse down")}
	tr, err := New(models.Configuration{PixelID: "px-1", Enabled: true}, WithSinks(failing), WithDeduper(dedup))
	require.NoError(t, err)

	_, err = tr.Track(context.Background(), models.EventPurchase, nil, &models.EventMeta{EventID: "order-3"}, Source{})
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "clickhouse down")
	assert.Equal(t, []string{"px-1/order-3"}, dedup.released)

	failing.err = nil
	_, err = tr.Track(context.Background(), models.EventPurchase, nil, &models.EventMeta{EventID: "order-3"}, Source{})
	assert.NoError(t, err, "a released id can be retried")
}

func TestValidateEvent(t *testing.T) {
	assert.NoError(t, ValidateEvent("ViewContent", false, nil))
	assert.ErrorIs(t, ValidateEvent("Refund", false, nil), models.ErrUnknownEventName)
	assert.NoError(t, ValidateEvent("Refund", true, nil))
	assert.ErrorIs(t, ValidateEvent("Search", true, nil), ErrStandardNameAsCustom)
	assert.ErrorIs(t, ValidateEvent("Search", false, &models.EventProperties{TravelClass: "coach"}), models.ErrUnknownTravelClass)
}

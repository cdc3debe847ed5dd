// Package tracker dispatches pixel events: it checks them against the pixel
// configuration and the event contract, then hands them to every sink.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pixeltrack/api/models"
)

// MaxCustomEventNameLen is the longest name accepted for a custom event.
const MaxCustomEventNameLen = 50

var (
	ErrTrackingDisabled     = errors.New("tracking is disabled for this pixel")
	ErrInvalidCustomName    = errors.New("custom event name must be 1-50 characters")
	ErrStandardNameAsCustom = errors.New("standard event names must be tracked as standard events")
	ErrDuplicateEvent       = errors.New("event already tracked")
	ErrDelivery             = errors.New("event delivery failed")
)

// Sink receives every accepted event.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event models.PixelEvent) error
}

// Deduper remembers caller-supplied event ids.
type Deduper interface {
	// Claim records the id and reports false if it was already recorded.
	Claim(ctx context.Context, pixelID, eventID string) (bool, error)
	// Release forgets an id so a failed delivery can be retried.
	Release(ctx context.Context, pixelID, eventID string) error
}

// Source describes where an event came from.
type Source struct {
	URL       string
	UserAgent string
	IPAddress string
	// Zero means now.
	Timestamp time.Time
}

type Tracker struct {
	mu      sync.RWMutex
	cfg     models.Configuration
	sinks   []Sink
	deduper Deduper
	now     func() time.Time
	newID   func() string
}

type Option func(*Tracker)

func WithSinks(sinks ...Sink) Option {
	return func(t *Tracker) { t.sinks = append(t.sinks, sinks...) }
}

func WithDeduper(d Deduper) Option {
	return func(t *Tracker) { t.deduper = d }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// New returns a tracker for cfg. It fails when cfg has no pixel id.
func New(cfg models.Configuration, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tracker) PixelID() string { return t.cfg.PixelID }

func (t *Tracker) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg.Enabled
}

func (t *Tracker) Enable() {
	t.mu.Lock()
	t.cfg.Enabled = true
	t.mu.Unlock()
}

func (t *Tracker) Disable() {
	t.mu.Lock()
	t.cfg.Enabled = false
	t.mu.Unlock()
}

// Track reports a standard event.
func (t *Tracker) Track(ctx context.Context, name models.EventName, props *models.EventProperties, meta *models.EventMeta, src Source) (models.PixelEvent, error) {
	if !name.IsValid() {
		eventsRejected().WithLabelValues("unknown_event").Inc()
		return models.PixelEvent{}, fmt.Errorf("%w: %q", models.ErrUnknownEventName, name)
	}
	return t.dispatch(ctx, string(name), false, props, meta, src)
}

// TrackCustom reports an event outside the standard vocabulary.
func (t *Tracker) TrackCustom(ctx context.Context, name string, props *models.EventProperties, meta *models.EventMeta, src Source) (models.PixelEvent, error) {
	name = strings.TrimSpace(name)
	if err := checkCustomName(name); err != nil {
		eventsRejected().WithLabelValues("invalid_custom_name").Inc()
		return models.PixelEvent{}, err
	}
	return t.dispatch(ctx, name, true, props, meta, src)
}

// ValidateEvent applies the name and property checks of Track and
// TrackCustom without dispatching anything.
func ValidateEvent(name string, custom bool, props *models.EventProperties) error {
	if custom {
		if err := checkCustomName(strings.TrimSpace(name)); err != nil {
			return err
		}
	} else if !models.EventName(name).IsValid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownEventName, name)
	}
	return props.Validate()
}

func checkCustomName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxCustomEventNameLen {
		return ErrInvalidCustomName
	}
	if models.EventName(name).IsValid() {
		return fmt.Errorf("%w: %q", ErrStandardNameAsCustom, name)
	}
	return nil
}

func (t *Tracker) dispatch(ctx context.Context, name string, custom bool, props *models.EventProperties, meta *models.EventMeta, src Source) (models.PixelEvent, error) {
	if !t.Enabled() {
		eventsRejected().WithLabelValues("disabled").Inc()
		return models.PixelEvent{}, ErrTrackingDisabled
	}
	if err := props.Validate(); err != nil {
		eventsRejected().WithLabelValues("invalid_properties").Inc()
		return models.PixelEvent{}, err
	}

	ev := models.PixelEvent{
		PixelID:    t.cfg.PixelID,
		EventName:  name,
		Custom:     custom,
		Timestamp:  src.Timestamp,
		SourceURL:  src.URL,
		UserAgent:  src.UserAgent,
		IPAddress:  src.IPAddress,
		Properties: props,
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = t.now()
	}

	claimed := false
	if meta != nil && meta.EventID != "" {
		ev.EventID = meta.EventID
		if t.deduper != nil {
			fresh, err := t.deduper.Claim(ctx, ev.PixelID, ev.EventID)
			if err != nil {
				log.Printf("Dedup check failed for pixel %s event %s, tracking anyway: %v", ev.PixelID, ev.EventID, err)
			} else if !fresh {
				eventsRejected().WithLabelValues("duplicate").Inc()
				return ev, fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.EventID)
			} else {
				claimed = true
			}
		}
	} else {
		ev.EventID = t.newID()
	}

	var errs []error
	for _, sink := range t.sinks {
		if err := sink.Deliver(ctx, ev); err != nil {
			log.Printf("Sink %s failed for pixel %s event %s: %v", sink.Name(), ev.PixelID, ev.EventID, err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		if claimed {
			if err := t.deduper.Release(ctx, ev.PixelID, ev.EventID); err != nil {
				log.Printf("Failed to release dedup key for pixel %s event %s: %v", ev.PixelID, ev.EventID, err)
			}
		}
		eventsRejected().WithLabelValues("delivery").Inc()
		return ev, fmt.Errorf("%w: %w", ErrDelivery, errors.Join(errs...))
	}

	eventsTracked().WithLabelValues(metricEventLabel(name, custom), fmt.Sprint(custom)).Inc()
	return ev, nil
}

// Custom names are unbounded, so they share one label value.
func metricEventLabel(name string, custom bool) string {
	if custom {
		return "custom"
	}
	return name
}

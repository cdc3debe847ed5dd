package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pixeltrack/api/middleware"
	"pixeltrack/api/models"
	"pixeltrack/api/tracker"
	"pixeltrack/api/utils"
)

// PixelLookup loads the stored configuration of a pixel.
type PixelLookup interface {
	GetPixel(ctx context.Context, pixelID string) (*models.PixelAccount, error)
}

// StatsReader is the reporting side of *store.AnalyticsStore.
type StatsReader interface {
	GetEventCountsOverTime(ctx context.Context, pixelID, interval string, start, end time.Time, eventNameFilter string) ([]models.EventCountByTime, error)
	GetRevenueByCurrency(ctx context.Context, pixelID string, start, end time.Time, currencyFilter string) ([]models.RevenueResult, error)
	GetTopContentIDs(ctx context.Context, pixelID string, start, end time.Time, limit uint64) ([]models.TopContentResult, error)
	GetTopFlightRoutes(ctx context.Context, pixelID string, start, end time.Time, limit uint64) ([]models.FlightRouteResult, error)
	CountEvents(ctx context.Context, pixelID string, start, end time.Time) (uint64, error)
}

// DefaultTrackTimeout bounds a /api/track request when no timeout is set.
const DefaultTrackTimeout = 15 * time.Second

type AnalyticsHandlers struct {
	Pixels       PixelLookup
	Stats        StatsReader
	Sinks        []tracker.Sink
	Deduper      tracker.Deduper
	MaxBatchSize int
	Timeout      time.Duration
	Now          func() time.Time
}

func NewAnalyticsHandlers(pixels PixelLookup, stats StatsReader, sinks []tracker.Sink, deduper tracker.Deduper, maxBatchSize int, timeout time.Duration) *AnalyticsHandlers {
	if timeout <= 0 {
		timeout = DefaultTrackTimeout
	}
	return &AnalyticsHandlers{
		Pixels:       pixels,
		Stats:        stats,
		Sinks:        sinks,
		Deduper:      deduper,
		MaxBatchSize: maxBatchSize,
		Timeout:      timeout,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

type rejectedEvent struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// TrackEvent accepts a batch of pixel events for the authenticated pixel.
// The whole batch is validated first; nothing is delivered if any entry is
// invalid.
func (h *AnalyticsHandlers) TrackEvent(c *gin.Context) {
	var incoming []models.TrackRequest
	if err := c.ShouldBindJSON(&incoming); err != nil {
		log.Printf("Error binding incoming pixel events: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if len(incoming) == 0 {
		c.JSON(http.StatusOK, gin.H{"accepted": 0, "duplicates": 0, "eventIds": []string{}})
		return
	}
	if h.MaxBatchSize > 0 && len(incoming) > h.MaxBatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Too many events in one request", "max": h.MaxBatchSize})
		return
	}

	var rejected []rejectedEvent
	for i, req := range incoming {
		if err := tracker.ValidateEvent(req.Event, req.Custom, req.Properties); err != nil {
			rejected = append(rejected, rejectedEvent{Index: i, Error: err.Error()})
		}
	}
	if len(rejected) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "One or more events are invalid", "rejected": rejected})
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTrackTimeout
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	pixelID := middleware.PixelID(c)
	account, err := h.Pixels.GetPixel(ctx, pixelID)
	if err != nil {
		writePixelLookupError(c, pixelID, err)
		return
	}

	t, err := tracker.New(account.Configuration(), tracker.WithSinks(h.Sinks...), tracker.WithDeduper(h.Deduper))
	if err != nil {
		log.Printf("ERROR: Stored configuration for pixel %s is invalid: %v", pixelID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pixel configuration is invalid"})
		return
	}
	if !t.Enabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Tracking is disabled for this pixel"})
		return
	}

	eventIDs := make([]string, 0, len(incoming))
	duplicates := 0
	for _, req := range incoming {
		src := tracker.Source{
			URL:       req.EventSourceURL,
			UserAgent: c.Request.UserAgent(),
			IPAddress: c.ClientIP(),
		}
		if src.URL == "" {
			src.URL = c.Request.Referer()
		}
		if req.Timestamp != nil {
			src.Timestamp = req.Timestamp.UTC()
		}

		var ev models.PixelEvent
		if req.Custom {
			ev, err = t.TrackCustom(ctx, req.Event, req.Properties, req.Meta(), src)
		} else {
			ev, err = t.Track(ctx, models.EventName(req.Event), req.Properties, req.Meta(), src)
		}
		switch {
		case err == nil:
			eventIDs = append(eventIDs, ev.EventID)
		case errors.Is(err, tracker.ErrDuplicateEvent):
			duplicates++
		default:
			log.Printf("Error tracking %s for pixel %s: %v", req.Event, pixelID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    "Failed to record pixel events",
				"accepted": len(eventIDs),
				"eventIds": eventIDs,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted":   len(eventIDs),
		"duplicates": duplicates,
		"eventIds":   eventIDs,
	})
}

func (h *AnalyticsHandlers) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, end, err := utils.ParseTimeRange(c.Query("start"), c.Query("end"), h.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseLimit(c *gin.Context) (uint64, bool) {
	var limit uint64 = 10
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil || parsed == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func (h *AnalyticsHandlers) GetEventCountsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Stats.GetEventCountsOverTime(ctx, middleware.PixelID(c), interval, start, end, c.Query("eventName"))
	if err != nil {
		log.Printf("Error getting event counts over time: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

type revenueQuery struct {
	Currency string `form:"currency" binding:"omitempty,pixel_currency"`
}

func (h *AnalyticsHandlers) GetRevenue(c *gin.Context) {
	var q revenueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'currency' parameter", "details": err.Error()})
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Stats.GetRevenueByCurrency(ctx, middleware.PixelID(c), start, end, q.Currency)
	if err != nil {
		log.Printf("Error getting revenue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve revenue statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetTopContentIDs(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Stats.GetTopContentIDs(ctx, middleware.PixelID(c), start, end, limit)
	if err != nil {
		log.Printf("Error getting top content ids: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top content statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetTopFlightRoutes(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Stats.GetTopFlightRoutes(ctx, middleware.PixelID(c), start, end, limit)
	if err != nil {
		log.Printf("Error getting top flight routes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve flight route statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetSummary(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	total, err := h.Stats.CountEvents(ctx, middleware.PixelID(c), start, end)
	if err != nil {
		log.Printf("Error counting events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pixelId":     middleware.PixelID(c),
		"startDate":   start.Format(time.RFC3339),
		"endDate":     end.Format(time.RFC3339),
		"totalEvents": total,
	})
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
	"pixeltrack/api/utils"
)

type AnalyticsStore struct {
	DB *database.ClickHouseClient
}

func NewAnalyticsStore(chClient *database.ClickHouseClient) *AnalyticsStore {
	return &AnalyticsStore{
		DB: chClient,
	}
}

// Name identifies the store when it acts as a tracker sink.
func (s *AnalyticsStore) Name() string { return "clickhouse" }

// Deliver stores a single tracked event.
func (s *AnalyticsStore) Deliver(ctx context.Context, event models.PixelEvent) error {
	return s.InsertPixelEvents(ctx, []models.PixelEvent{event})
}

func (s *AnalyticsStore) InsertPixelEvents(ctx context.Context, events []models.PixelEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO pixel_events (
			event_id, pixel_id, event_name, is_custom, timestamp, source_url, user_agent, ip_address,
			value, currency, content_type, content_ids, origin_airport, destination_airport,
			departing_date, properties
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	// One bad row fails the whole batch so no event is reported as stored
	// when it was not.
	for _, event := range events {
		row, err := eventRow(event)
		if err == nil {
			err = batch.Append(row...)
		}
		if err != nil {
			log.Printf("Error adding pixel event to batch (EventID: %s): %v", event.EventID, err)
			if abortErr := batch.Abort(); abortErr != nil {
				log.Printf("Error aborting pixel event batch: %v", abortErr)
			}
			return fmt.Errorf("failed to append pixel event %s: %w", event.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Successfully inserted %d pixel events.", len(events))
	return nil
}

// eventRow flattens an event into the pixel_events column order. The full
// property bag is kept as JSON; the flattened columns only serve reports.
func eventRow(ev models.PixelEvent) ([]any, error) {
	var (
		value         *float64
		currency      string
		contentType   string
		contentIDs    = []string{}
		origin        string
		destination   string
		departingDate *time.Time
		properties    = "{}"
	)

	if p := ev.Properties; p != nil {
		value = p.Value
		currency = string(p.Currency)
		contentType = string(p.ContentType)
		if keys := p.ContentIDs.Keys(); keys != nil {
			contentIDs = keys
		}
		origin = p.OriginAirport
		destination = p.DestinationAirport
		if p.DepartingDepartureDate != "" {
			if t, err := models.ParseTravelDate(p.DepartingDepartureDate); err == nil {
				departingDate = &t
			}
		}
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode properties: %w", err)
		}
		properties = string(b)
	}

	return []any{
		ev.EventID,
		ev.PixelID,
		ev.EventName,
		ev.Custom,
		ev.Timestamp,
		ev.SourceURL,
		ev.UserAgent,
		ev.IPAddress,
		value,
		currency,
		contentType,
		contentIDs,
		origin,
		destination,
		departingDate,
		properties,
	}, nil
}

func (s *AnalyticsStore) GetEventCountsOverTime(ctx context.Context, pixelID, interval string, start, end time.Time, eventNameFilter string) ([]models.EventCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	args := []any{pixelID, start, end}
	selectCols := fmt.Sprintf("toStartOf%s(timestamp) AS time_bucket, count() AS total_events", interval)
	groupByCols := "time_bucket"
	whereClause := "WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ?"
	orderByCols := "time_bucket ASC"
	isFilteringByName := eventNameFilter != ""

	if isFilteringByName {
		selectCols += ", event_name"
		groupByCols += ", event_name"
		whereClause += " AND event_name = ?"
		args = append(args, eventNameFilter)
		orderByCols += ", event_name ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM pixel_events FINAL
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	var results []models.EventCountByTime
	for rows.Next() {
		var (
			timeBucket time.Time
			count      uint64
			eventName  string
			result     models.EventCountByTime
		)

		if isFilteringByName {
			if err := rows.Scan(&timeBucket, &count, &eventName); err != nil {
				log.Printf("Error scanning row for event counts over time (with name filter): %v", err)
				continue
			}
			result.EventName = &eventName
		} else {
			if err := rows.Scan(&timeBucket, &count); err != nil {
				log.Printf("Error scanning row for event counts over time: %v", err)
				continue
			}
		}

		result.Time = timeBucket
		result.Count = count
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}

	return results, nil
}

// GetRevenueByCurrency sums event values per currency. Values sent without
// a currency are grouped under the empty currency.
func (s *AnalyticsStore) GetRevenueByCurrency(ctx context.Context, pixelID string, start, end time.Time, currencyFilter string) ([]models.RevenueResult, error) {
	query := `
		SELECT currency, sum(assumeNotNull(value)) AS total, count() AS events
		FROM pixel_events FINAL
		WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ? AND value IS NOT NULL
	`
	args := []any{pixelID, start, end}
	if currencyFilter != "" {
		query += ` AND currency = ?`
		args = append(args, currencyFilter)
	}
	query += ` GROUP BY currency ORDER BY currency ASC`

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue: %w", err)
	}
	defer rows.Close()

	var results []models.RevenueResult
	for rows.Next() {
		var r models.RevenueResult
		if err := rows.Scan(&r.Currency, &r.Total, &r.Events); err != nil {
			log.Printf("Error scanning row for revenue: %v", err)
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for revenue: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetTopContentIDs(ctx context.Context, pixelID string, start, end time.Time, limit uint64) ([]models.TopContentResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT arrayJoin(content_ids) AS content_id, count() AS hits
		FROM pixel_events FINAL
		WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY content_id
		ORDER BY hits DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, pixelID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top content ids: %w", err)
	}
	defer rows.Close()

	var results []models.TopContentResult
	for rows.Next() {
		var r models.TopContentResult
		if err := rows.Scan(&r.ContentID, &r.Count); err != nil {
			log.Printf("Error scanning row for top content ids: %v", err)
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top content ids: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetTopFlightRoutes(ctx context.Context, pixelID string, start, end time.Time, limit uint64) ([]models.FlightRouteResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT origin_airport, destination_airport, count() AS searches
		FROM pixel_events FINAL
		WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ?
			AND origin_airport != '' AND destination_airport != ''
		GROUP BY origin_airport, destination_airport
		ORDER BY searches DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, pixelID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top flight routes: %w", err)
	}
	defer rows.Close()

	var results []models.FlightRouteResult
	for rows.Next() {
		var r models.FlightRouteResult
		if err := rows.Scan(&r.Origin, &r.Destination, &r.Count); err != nil {
			log.Printf("Error scanning row for top flight routes: %v", err)
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top flight routes: %w", err)
	}

	return results, nil
}

// CountEvents returns how many events a pixel has stored in the window.
func (s *AnalyticsStore) CountEvents(ctx context.Context, pixelID string, start, end time.Time) (uint64, error) {
	var total uint64
	err := s.DB.Conn.QueryRow(ctx, `
		SELECT count() FROM pixel_events FINAL
		WHERE pixel_id = ? AND timestamp >= ? AND timestamp <= ?
	`, pixelID, start, end).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return total, nil
}

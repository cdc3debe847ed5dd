package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"pixeltrack/api/config"
)

type ClickHouseClient struct {
	Conn clickhouse.Conn
}

// Rows sharing (pixel_id, event_id) collapse on merge, which is how a
// re-sent eventID is deduplicated at rest.
const pixelEventsSchema = `
CREATE TABLE IF NOT EXISTS pixel_events (
	event_id            String,
	pixel_id            String,
	event_name          LowCardinality(String),
	is_custom           Bool,
	timestamp           DateTime64(3, 'UTC'),
	source_url          String,
	user_agent          String,
	ip_address          String,
	value               Nullable(Float64),
	currency            LowCardinality(String),
	content_type        LowCardinality(String),
	content_ids         Array(String),
	origin_airport      String,
	destination_airport String,
	departing_date      Nullable(Date),
	properties          String
) ENGINE = ReplacingMergeTree
ORDER BY (pixel_id, event_id)`

func NewClickHouseDB(cfg config.Config) (*ClickHouseClient, error) {
	if cfg.ClickHouseHost == "" || cfg.ClickHouseDB == "" {
		return nil, fmt.Errorf("CLICKHOUSE_HOST or CLICKHOUSE_DB_NAME environment variables are not set")
	}

	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.ClickHouseHost, cfg.ClickHouseNativePort)},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "pixeltrack-api", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse via Native TCP: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Println("Successfully connected to ClickHouse database via Native TCP!")
	return &ClickHouseClient{Conn: conn}, nil
}

// EnsureSchema creates the pixel_events table when it is missing.
func (c *ClickHouseClient) EnsureSchema(ctx context.Context) error {
	if err := c.Conn.Exec(ctx, pixelEventsSchema); err != nil {
		return fmt.Errorf("failed to create pixel_events table: %w", err)
	}
	return nil
}

func (c *ClickHouseClient) Close() {
	if c.Conn != nil {
		c.Conn.Close()
		log.Println("ClickHouse connection closed.")
	}
}

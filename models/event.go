package models

import (
	"time"
)

// PixelEvent is a single tracked event as it is stored and forwarded.
type PixelEvent struct {
	EventID    string           `json:"eventId"`
	PixelID    string           `json:"pixelId"`
	EventName  string           `json:"eventName"`
	Custom     bool             `json:"custom"`
	Timestamp  time.Time        `json:"timestamp"`
	SourceURL  string           `json:"eventSourceUrl,omitempty"`
	UserAgent  string           `json:"userAgent,omitempty"`
	IPAddress  string           `json:"ipAddress,omitempty"`
	Properties *EventProperties `json:"properties,omitempty"`
}

// TrackRequest is one entry of the batch posted to /api/track.
type TrackRequest struct {
	Event          string           `json:"event" binding:"required,pixel_event"`
	Custom         bool             `json:"custom"`
	Properties     *EventProperties `json:"properties,omitempty"`
	EventID        string           `json:"eventID,omitempty" binding:"max=128"`
	EventSourceURL string           `json:"eventSourceUrl,omitempty"`
	Timestamp      *time.Time       `json:"timestamp,omitempty"`
}

// Meta returns the metadata part of the request.
func (r TrackRequest) Meta() *EventMeta {
	if r.EventID == "" {
		return nil
	}
	return &EventMeta{EventID: r.EventID}
}

type EventCountByTime struct {
	Time      time.Time `json:"time"`
	EventName *string   `json:"eventName,omitempty"`
	Count     uint64    `json:"count"`
}

type RevenueResult struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
	Events   uint64  `json:"events"`
}

type TopContentResult struct {
	ContentID string `json:"contentId"`
	Count     uint64 `json:"count"`
}

type FlightRouteResult struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Count       uint64 `json:"count"`
}

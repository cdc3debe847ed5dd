package models

import "time"

type RegisterPixelRequest struct {
	PixelID string `json:"pixelId" binding:"required,max=64"`
	Secret  string `json:"secret" binding:"required,min=8"`
	Enabled bool   `json:"enabled"`
}

type TokenRequest struct {
	PixelID string `json:"pixelId" binding:"required"`
	Secret  string `json:"secret" binding:"required"`
}

type UpdatePixelRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// PixelAccount is a registered pixel and the credentials used to report
// events for it.
type PixelAccount struct {
	ID           int       `json:"id"`
	PixelID      string    `json:"pixelId"`
	HashedSecret []byte    `json:"-"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *PixelAccount) Configuration() Configuration {
	return Configuration{Enabled: a.Enabled, PixelID: a.PixelID}
}

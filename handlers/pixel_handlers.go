package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"pixeltrack/api/middleware"
	"pixeltrack/api/models"
	"pixeltrack/api/store"
	"pixeltrack/api/utils"
)

// PixelRepository is the account storage the handlers need; *store.PixelStore
// implements it.
type PixelRepository interface {
	CreatePixel(ctx context.Context, pixelID string, hashedSecret []byte, enabled bool) (*models.PixelAccount, error)
	GetPixel(ctx context.Context, pixelID string) (*models.PixelAccount, error)
	SetEnabled(ctx context.Context, pixelID string, enabled bool) (*models.PixelAccount, error)
}

type PixelHandlers struct {
	Pixels    PixelRepository
	JWTSecret []byte
	TokenTTL  time.Duration
}

func NewPixelHandlers(pixels PixelRepository, jwtSecret []byte, tokenTTL time.Duration) *PixelHandlers {
	return &PixelHandlers{Pixels: pixels, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

// RegisterPixel stores a new pixel and its hashed secret.
func (h *PixelHandlers) RegisterPixel(c *gin.Context) {
	var req models.RegisterPixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cfg := models.Configuration{PixelID: strings.TrimSpace(req.PixelID), Enabled: req.Enabled}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pixel configuration", "details": err.Error()})
		return
	}

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash secret for pixel %s: %v", cfg.PixelID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process secret"})
		return
	}

	account, err := h.Pixels.CreatePixel(c.Request.Context(), cfg.PixelID, hashedSecret, cfg.Enabled)
	if err != nil {
		if errors.Is(err, store.ErrPixelExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Pixel is already registered"})
			return
		}
		log.Printf("ERROR: Failed to register pixel %s: %v", cfg.PixelID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register pixel"})
		return
	}

	c.JSON(http.StatusCreated, account.Configuration())
}

// IssueToken exchanges a pixel id and secret for a pixel token.
func (h *PixelHandlers) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	account, err := h.Pixels.GetPixel(c.Request.Context(), req.PixelID)
	if err != nil {
		if !errors.Is(err, store.ErrPixelNotFound) {
			log.Printf("ERROR: Pixel lookup failed for %s: %v", req.PixelID, err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(account.HashedSecret, []byte(req.Secret)); err != nil {
		log.Printf("Token request for pixel %s: secret mismatch", req.PixelID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateJWT(account.PixelID, h.JWTSecret, h.TokenTTL)
	if err != nil {
		log.Printf("ERROR: Failed to generate token for pixel %s: %v", account.PixelID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.SetCookie(
		middleware.TokenCookie,
		tokenString,
		int(h.TokenTTL/time.Second),
		"/",
		"",
		false,
		true,
	)

	log.Printf("Pixel token issued for %s", account.PixelID)
	c.JSON(http.StatusOK, gin.H{
		"token":     tokenString,
		"expiresIn": int(h.TokenTTL / time.Second),
	})
}

// GetConfiguration returns the stored configuration of the caller's pixel.
func (h *PixelHandlers) GetConfiguration(c *gin.Context) {
	pixelID, ok := ownPixel(c)
	if !ok {
		return
	}

	account, err := h.Pixels.GetPixel(c.Request.Context(), pixelID)
	if err != nil {
		writePixelLookupError(c, pixelID, err)
		return
	}

	c.JSON(http.StatusOK, account.Configuration())
}

// UpdateConfiguration switches tracking on or off.
func (h *PixelHandlers) UpdateConfiguration(c *gin.Context) {
	pixelID, ok := ownPixel(c)
	if !ok {
		return
	}

	var req models.UpdatePixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	account, err := h.Pixels.SetEnabled(c.Request.Context(), pixelID, *req.Enabled)
	if err != nil {
		writePixelLookupError(c, pixelID, err)
		return
	}

	c.JSON(http.StatusOK, account.Configuration())
}

// ownPixel checks that the :pixelId path parameter is the token's pixel.
func ownPixel(c *gin.Context) (string, bool) {
	pixelID := c.Param("pixelId")
	if pixelID != middleware.PixelID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token does not grant access to this pixel"})
		return "", false
	}
	return pixelID, true
}

func writePixelLookupError(c *gin.Context, pixelID string, err error) {
	if errors.Is(err, store.ErrPixelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pixel not found"})
		return
	}
	log.Printf("ERROR: Pixel lookup failed for %s: %v", pixelID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pixel"})
}

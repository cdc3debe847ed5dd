package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pixeltrack/api/utils"
)

const (
	// TokenCookie carries the pixel token for browser clients.
	TokenCookie = "pixel_token"
	// PixelIDKey is the gin context key holding the authenticated pixel id.
	PixelIDKey = "pixel_id"
)

// AuthRequired accepts a pixel token from the Authorization header or the
// pixel_token cookie. The header is tried first; the first valid token wins.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var candidates []string
		if header := c.GetHeader("Authorization"); header != "" {
			candidates = append(candidates, strings.TrimPrefix(header, "Bearer "))
		}
		if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
			candidates = append(candidates, cookie)
		}
		if len(candidates) == 0 {
			log.Println("AuthRequired: No pixel token found in cookie or header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		var lastErr error
		for _, tokenString := range candidates {
			claims, err := utils.ValidateJWT(tokenString, secret)
			if err != nil {
				lastErr = err
				continue
			}
			c.Set(PixelIDKey, claims.PixelID)
			c.Next()
			return
		}

		log.Printf("AuthRequired: Invalid pixel token: %v", lastErr)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
	}
}

// PixelID returns the pixel id set by AuthRequired.
func PixelID(c *gin.Context) string {
	return c.GetString(PixelIDKey)
}

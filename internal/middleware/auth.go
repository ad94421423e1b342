package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerIDKey is the gin context key holding the authenticated owner id.
const OwnerIDKey = "owner_id"

// Claims are the JWT claims the identity source issues.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Auth validates the Bearer token and stores the caller's owner id in the
// context. The service only uses identity to authorize upload, update and
// delete; the pipeline itself never consults it.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		c.Set(OwnerIDKey, claims.UserID)
		c.Next()
	}
}

// OwnerID returns the authenticated owner id set by Auth.
func OwnerID(c *gin.Context) string {
	v, _ := c.Get(OwnerIDKey)
	id, _ := v.(string)
	return id
}

package middleware

import (
	"net/http"
	"strings"

	"streaksync/internal/models"
	"streaksync/internal/services"
	"streaksync/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// LoadUser resolves the caller from the session cookie or, for API
// clients, from a bearer token, and puts the profile in the context.
func LoadUser(profiles *services.ProfileService, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if uid, err := utils.ParseToken(jwtSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
				userID = uid
			}
		}
		if userID == "" {
			if v, ok := sessions.Default(c).Get(SessionUserKey).(string); ok {
				userID = v
			}
		}

		if userID != "" {
			if user, err := profiles.Profile(userID); err == nil {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a resolved user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

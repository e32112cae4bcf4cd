package handlers

import (
	"net/http"
	"time"

	"streaksync/internal/middleware"
	"streaksync/internal/services"
	"streaksync/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

type AuthHandler struct {
	profiles    *services.ProfileService
	oauth       *oauth2.Config
	userInfoURL string
	homeURL     string
	jwtSecret   string
	jwtExpiry   time.Duration
}

func NewAuthHandler(profiles *services.ProfileService, oauth *oauth2.Config, siteURL, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		profiles:    profiles,
		oauth:       oauth,
		userInfoURL: googleUserInfoURL,
		homeURL:     siteURL + "/",
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
	}
}

// Logout 清除会话
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Token exchanges the current sign-in for a bearer token usable by API
// and WebSocket clients.
func (h *AuthHandler) Token(c *gin.Context) {
	user := currentUser(c)
	token, err := utils.GenerateToken(h.jwtSecret, user.ID, h.jwtExpiry)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(h.jwtExpiry.Seconds()),
	})
}

func (h *AuthHandler) login(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, userID)
	return session.Save()
}

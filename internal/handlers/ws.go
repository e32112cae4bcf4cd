package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"streaksync/internal/realtime"
	"streaksync/internal/services"
	"streaksync/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeHandler struct {
	hub        *realtime.Hub
	upgrader   websocket.Upgrader
	goals      *services.GoalService
	feed       *services.FeedService
	challenges *services.ChallengeService
	profiles   *services.ProfileService
	jwtSecret  string
}

func NewRealtimeHandler(hub *realtime.Hub, goals *services.GoalService, feed *services.FeedService,
	challenges *services.ChallengeService, profiles *services.ProfileService, jwtSecret string, origins []string) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, origin)
			},
		},
		goals:      goals,
		feed:       feed,
		challenges: challenges,
		profiles:   profiles,
		jwtSecret:  jwtSecret,
	}
}

// Serve upgrades the request. Browsers cannot set headers on a WebSocket
// handshake, so a ?token= query parameter is accepted as well.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	userID := ""
	if user := currentUser(c); user != nil {
		userID = user.ID
	} else if token := c.Query("token"); token != "" {
		uid, err := utils.ParseToken(h.jwtSecret, token)
		if err == nil {
			if _, err := h.profiles.Profile(uid); err == nil {
				userID = uid
			}
		}
	}
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		return
	}
	h.hub.Serve(conn, realtime.NewClient(userID), h.snapshot)
}

// snapshot loads the current state of topic for userID.
func (h *RealtimeHandler) snapshot(userID, topic string) (any, error) {
	kind, arg, scoped := strings.Cut(topic, ":")
	switch kind {
	case services.TopicFeed, services.TopicChallenges:
		if scoped {
			return nil, fmt.Errorf("%w: unknown topic %q", services.ErrInvalidInput, topic)
		}
		if kind == services.TopicFeed {
			return h.feed.Feed()
		}
		return h.challenges.List(services.FilterAll)
	case "goals":
		if arg != userID {
			return nil, fmt.Errorf("%w: goals of another user", services.ErrForbidden)
		}
		return h.goals.List(userID)
	case "profile":
		if arg != userID {
			return nil, fmt.Errorf("%w: profile of another user", services.ErrForbidden)
		}
		return h.profiles.Profile(userID)
	case "comments":
		if arg == "" {
			return nil, fmt.Errorf("%w: missing post id", services.ErrInvalidInput)
		}
		return h.feed.Comments(arg)
	default:
		return nil, fmt.Errorf("%w: unknown topic %q", services.ErrInvalidInput, topic)
	}
}

package handlers

import (
	"net/http"

	"streaksync/internal/services"

	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	challenges *services.ChallengeService
}

func NewChallengeHandler(challenges *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

type duelRequest struct {
	OpponentID string `json:"opponent_id" binding:"required"`
	Category   string `json:"category"`
}

// List supports ?filter=all|active|past.
func (h *ChallengeHandler) List(c *gin.Context) {
	list, err := h.challenges.List(c.DefaultQuery("filter", services.FilterAll))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	var in services.ChallengeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	challenge, err := h.challenges.Create(currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

func (h *ChallengeHandler) Duel(c *gin.Context) {
	var req duelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	challenge, err := h.challenges.Duel(currentUser(c), req.OpponentID, req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	challenge, err := h.challenges.Join(c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Leave(c *gin.Context) {
	challenge, err := h.challenges.Leave(c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Complete(c *gin.Context) {
	challenge, granted, err := h.challenges.Complete(c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"challenge": challenge, "xp_awarded": 0}
	if granted {
		resp["xp_awarded"] = services.XPChallengeComplete
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
	if err := h.challenges.Delete(c.Param("id"), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

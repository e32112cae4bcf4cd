package handlers

import (
	"net/http"

	"streaksync/internal/services"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	llm   *services.LLMService
	goals *services.GoalService
}

func NewAIHandler(llm *services.LLMService, goals *services.GoalService) *AIHandler {
	return &AIHandler{llm: llm, goals: goals}
}

type motivationRequest struct {
	GoalID string `json:"goal_id" binding:"required"`
}

type goalDetailsRequest struct {
	Title string `json:"title" binding:"required"`
}

type communityNameRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *AIHandler) Motivation(c *gin.Context) {
	var req motivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user := currentUser(c)
	goal, err := h.goals.Get(user.ID, req.GoalID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.llm.Motivation(c.Request.Context(), *goal, user.Name)})
}

func (h *AIHandler) GoalDetails(c *gin.Context) {
	var req goalDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.llm.GoalDetails(c.Request.Context(), req.Title))
}

func (h *AIHandler) CommunityName(c *gin.Context) {
	var req communityNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": h.llm.CommunityName(c.Request.Context(), req.Title, req.Description)})
}

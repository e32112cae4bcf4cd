package handlers

import (
	"net/http"
	"strconv"

	"streaksync/internal/models"
	"streaksync/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	profiles *services.ProfileService
}

func NewUserHandler(profiles *services.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.profiles.Stats(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) Report(c *gin.Context) {
	report, err := h.profiles.Report(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// XPLogs 经验记录
func (h *UserHandler) XPLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.profiles.XPHistory(currentUser(c).ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// Search finds other users by goal title prefix.
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.profiles.SearchByGoalTitle(c.Query("goal"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) ByCategory(c *gin.Context) {
	category := models.GoalCategory(c.Query("category"))
	users, err := h.profiles.UsersByGoalCategory(category, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

package handlers

import (
	"net/http"

	"streaksync/internal/services"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	goals      *services.GoalService
	challenges *services.ChallengeService
}

func NewGoalHandler(goals *services.GoalService, challenges *services.ChallengeService) *GoalHandler {
	return &GoalHandler{goals: goals, challenges: challenges}
}

func (h *GoalHandler) List(c *gin.Context) {
	goals, err := h.goals.List(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *GoalHandler) Create(c *gin.Context) {
	var in services.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	goal, err := h.goals.Create(currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *GoalHandler) Update(c *gin.Context) {
	var patch services.GoalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	goal, err := h.goals.Update(currentUser(c).ID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// CheckIn 每日打卡；重复打卡返回 200 和 checked_in=false
func (h *GoalHandler) CheckIn(c *gin.Context) {
	goal, checked, err := h.goals.CheckIn(currentUser(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"goal": goal, "checked_in": checked, "xp_awarded": 0}
	if checked {
		resp["xp_awarded"] = services.XPCheckIn
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	if err := h.goals.Delete(currentUser(c).ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Share publishes the goal as a 30 day community challenge.
func (h *GoalHandler) Share(c *gin.Context) {
	challenge, err := h.challenges.ShareGoal(currentUser(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// ToggleLike likes the post, or takes the like back when it is already there.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	user := currentUser(c)
	post, err := h.feed.ToggleLike(c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":  post,
		"liked": slices.Contains(post.LikedBy, user.ID),
	})
}

package handlers

import (
	"net/http"

	"streaksync/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	feed *services.FeedService
}

func NewPostHandler(feed *services.FeedService) *PostHandler {
	return &PostHandler{feed: feed}
}

type createPostRequest struct {
	Content   string `json:"content" binding:"required"`
	GoalTitle string `json:"goal_title"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Feed 社区动态，最新的在前
func (h *PostHandler) Feed(c *gin.Context) {
	posts, err := h.feed.Feed()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := h.feed.CreatePost(currentUser(c), req.Content, req.GoalTitle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.feed.DeletePost(c.Param("id"), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) Comments(c *gin.Context) {
	comments, err := h.feed.Comments(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := h.feed.AddComment(c.Param("id"), currentUser(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment 评论作者或帖子作者可删除
func (h *PostHandler) DeleteComment(c *gin.Context) {
	if err := h.feed.DeleteComment(c.Param("id"), c.Param("cid"), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

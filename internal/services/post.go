package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"streaksync/internal/models"
	"streaksync/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// FeedLimit is the number of posts the community feed shows.
	FeedLimit    = 50
	feedCacheKey = "feed:recent"
)

type FeedService struct {
	db       *gorm.DB
	pub      Publisher
	cache    utils.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewFeedService wires the post store; cache may be nil to disable caching.
func NewFeedService(db *gorm.DB, pub Publisher, cache utils.Cache, cacheTTL time.Duration) *FeedService {
	return &FeedService{
		db:       db,
		pub:      orNop(pub),
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *FeedService) CreatePost(author *models.User, content, goalTitle string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	post := models.Post{
		ID:         uuid.NewString(),
		UserID:     author.ID,
		UserName:   author.Name,
		UserAvatar: author.Avatar,
		Content:    content,
		GoalTitle:  goalTitle,
		Timestamp:  s.now(),
		Reactions:  0,
		IsAI:       false,
		LikedBy:    []string{},
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	s.feedChanged()
	s.decorate(&post)
	return &post, nil
}

// ToggleLike flips userID's membership in the post's likes; the reaction
// counter moves in the same transaction.
func (s *FeedService) ToggleLike(postID, userID string) (*models.Post, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, "id = ?", postID).Error; err != nil {
			return missing(err, "post")
		}

		// 已点赞则取消
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("reactions", gorm.Expr("reactions - ?", 1)).Error
		}

		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PostLike{
			PostID:    postID,
			UserID:    userID,
			CreatedAt: s.now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("reactions", gorm.Expr("reactions + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	s.feedChanged()
	return s.Post(postID)
}

func (s *FeedService) Post(postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Likes", orderLikes).First(&post, "id = ?", postID).Error
	if err != nil {
		return nil, missing(err, "post")
	}
	fillLikedBy(&post)
	s.decorate(&post)
	return &post, nil
}

// DeletePost is limited to the author. Comments stay behind.
func (s *FeedService) DeletePost(postID, callerID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, "id = ?", postID).Error; err != nil {
			return missing(err, "post")
		}
		if post.UserID != callerID {
			return fmt.Errorf("%w: only the author can delete a post", ErrForbidden)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", postID).Error
	})
	if err != nil {
		return err
	}
	s.feedChanged()
	return nil
}

// Feed returns the most recent posts, newest first, with age labels
// relative to now.
func (s *FeedService) Feed() ([]models.Post, error) {
	posts, err := s.recentPosts()
	if err != nil {
		return nil, err
	}
	for i := range posts {
		s.decorate(&posts[i])
	}
	return posts, nil
}

func (s *FeedService) recentPosts() ([]models.Post, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(feedCacheKey); ok {
			var posts []models.Post
			if err := json.Unmarshal(data, &posts); err == nil {
				return posts, nil
			}
			slog.Warn("discarding unreadable feed cache entry")
		}
	}

	posts := []models.Post{}
	err := s.db.Preload("Likes", orderLikes).
		Order("timestamp DESC, id DESC").
		Limit(FeedLimit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for i := range posts {
		fillLikedBy(&posts[i])
	}

	if s.cache != nil {
		if data, err := json.Marshal(posts); err == nil {
			s.cache.Set(feedCacheKey, data, s.cacheTTL)
		}
	}
	return posts, nil
}

func (s *FeedService) AddComment(postID string, author *models.User, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}
	var count int64
	if err := s.db.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, missing(gorm.ErrRecordNotFound, "post")
	}

	comment := models.Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		UserID:     author.ID,
		UserName:   author.Name,
		UserAvatar: author.Avatar,
		Content:    content,
		Timestamp:  s.now(),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	s.publishComments(postID)
	return &comment, nil
}

// Comments 按时间正序返回帖子下的评论
func (s *FeedService) Comments(postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.Where("post_id = ?", postID).Order("timestamp ASC, id ASC").Find(&comments).Error
	return comments, err
}

// DeleteComment is allowed for the comment author and the post owner.
func (s *FeedService) DeleteComment(postID, commentID, callerID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, "id = ?", postID).Error; err != nil {
			return missing(err, "post")
		}
		var comment models.Comment
		if err := tx.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error; err != nil {
			return missing(err, "comment")
		}
		if callerID != comment.UserID && callerID != post.UserID {
			return fmt.Errorf("%w: only the comment author or post owner can delete a comment", ErrForbidden)
		}
		return tx.Delete(&models.Comment{}, "id = ?", commentID).Error
	})
	if err != nil {
		return err
	}
	s.publishComments(postID)
	return nil
}

// feedChanged drops the cached feed and pushes a fresh snapshot.
func (s *FeedService) feedChanged() {
	if s.cache != nil {
		s.cache.Delete(feedCacheKey)
	}
	posts, err := s.Feed()
	if err != nil {
		logSnapshotErr(TopicFeed, err)
		return
	}
	s.pub.Publish(TopicFeed, posts)
}

func (s *FeedService) publishComments(postID string) {
	topic := CommentsTopic(postID)
	comments, err := s.Comments(postID)
	if err != nil {
		logSnapshotErr(topic, err)
		return
	}
	s.pub.Publish(topic, comments)
}

func (s *FeedService) decorate(post *models.Post) {
	post.Age = utils.RelativeAge(s.now(), post.Timestamp)
	post.ContentHTML = string(utils.RenderMarkdown(post.Content))
	if post.LikedBy == nil {
		post.LikedBy = []string{}
	}
}

func orderLikes(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, user_id ASC")
}

func fillLikedBy(post *models.Post) {
	post.LikedBy = make([]string, 0, len(post.Likes))
	for _, l := range post.Likes {
		post.LikedBy = append(post.LikedBy, l.UserID)
	}
}

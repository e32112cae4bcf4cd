package services

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not allowed")
	ErrInvalidInput = errors.New("invalid input")
)

// Publisher receives a fresh snapshot of a topic after a mutation touched it.
type Publisher interface {
	Publish(topic string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

func orNop(pub Publisher) Publisher {
	if pub == nil {
		return nopPublisher{}
	}
	return pub
}

// 订阅主题
const (
	TopicFeed       = "feed"
	TopicChallenges = "challenges"
)

func GoalsTopic(userID string) string    { return "goals:" + userID }
func ProfileTopic(userID string) string  { return "profile:" + userID }
func CommentsTopic(postID string) string { return "comments:" + postID }

// missing maps gorm's missing-row error onto ErrNotFound.
func missing(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s does not exist", ErrNotFound, what)
	}
	return err
}

func logSnapshotErr(topic string, err error) {
	slog.Warn("failed to build snapshot", "topic", topic, "error", err)
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"streaksync/internal/models"
)

// 无法调用模型时的固定文案
const (
	MotivationUnavailable = "Keep pushing forward! You're doing great."
	MotivationEmpty       = "Consistency is key! You got this."
	MotivationFailed      = "Remember why you started. Keep the streak alive!"

	GoalDescriptionUnavailable = "Commit to this new habit consistently."
	GoalWhyUnavailable         = "To become a better version of myself and achieve my potential."

	CommunityNameUnavailable = "Goal Achievers"
	CommunityNameEmpty       = "Dedicated Achievers"
	CommunityNameFailed      = "Goal Setters"
)

var errLLMDisabled = errors.New("llm token not configured")

type LLMService struct {
	baseURL string
	token   string
	model   string
	client  *http.Client
}

func NewLLMService(baseURL, token, model string, timeout time.Duration) *LLMService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMService{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a token is configured.
func (s *LLMService) Enabled() bool {
	return s != nil && s.token != ""
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete sends a single user prompt and returns the first choice.
func (s *LLMService) complete(ctx context.Context, prompt string) (string, error) {
	if !s.Enabled() {
		return "", errLLMDisabled
	}
	body, err := json.Marshal(ChatRequest{
		Model:    s.model,
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm request failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Motivation writes a short encouragement for the goal. It never fails;
// fixed lines stand in when the model is unavailable.
func (s *LLMService) Motivation(ctx context.Context, goal models.Goal, userName string) string {
	if !s.Enabled() {
		return MotivationUnavailable
	}
	prompt := fmt.Sprintf(`You are an encouraging habit coach. Write one or two short sentences to motivate %s.
Goal: %s
Why it matters to them: %s
Current streak: %d days
Seed: %d`, userName, goal.Title, goal.Why, goal.StreakDays, time.Now().UnixMilli())

	text, err := s.complete(ctx, prompt)
	if err != nil {
		slog.Warn("motivation generation failed", "error", err)
		return MotivationFailed
	}
	if text == "" {
		return MotivationEmpty
	}
	return text
}

type GoalDetails struct {
	Description string `json:"description"`
	Why         string `json:"why"`
}

// GoalDetails suggests a description and a reason for a goal title.
// On failure both fields are empty.
func (s *LLMService) GoalDetails(ctx context.Context, title string) GoalDetails {
	if !s.Enabled() {
		return GoalDetails{
			Description: GoalDescriptionUnavailable,
			Why:         GoalWhyUnavailable,
		}
	}
	prompt := fmt.Sprintf(`For the goal "%s", reply with JSON only: {"description": "<one sentence>", "why": "<one sentence emotional reason>"}`, title)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		slog.Warn("goal details generation failed", "error", err)
		return GoalDetails{}
	}
	var details GoalDetails
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &details); err != nil {
		slog.Warn("goal details response is not json", "error", err)
		return GoalDetails{}
	}
	return details
}

// CommunityName proposes a name for the community around a goal.
func (s *LLMService) CommunityName(ctx context.Context, title, description string) string {
	if !s.Enabled() {
		return CommunityNameUnavailable
	}
	prompt := fmt.Sprintf(`Suggest a catchy community name (max 4 words) for people pursuing this goal. Reply with the name only.
Goal: %s
Description: %s`, title, description)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		slog.Warn("community name generation failed", "error", err)
		return CommunityNameFailed
	}
	text = strings.Trim(text, "\"' \n")
	if text == "" {
		return CommunityNameEmpty
	}
	return text
}

// stripCodeFence removes a ```json ... ``` wrapper around model output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

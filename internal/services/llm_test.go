package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streaksync/internal/models"
)

func chatReply(content string) ChatResponse {
	resp := ChatResponse{
		Choices: []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{
			{
				Message: struct {
					Content string `json:"content"`
				}{Content: content},
			},
		},
	}
	return resp
}

// 模拟 API 服务器，依次返回 replies
func newLLMServer(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Expected Bearer test-token, got %s", r.Header.Get("Authorization"))
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}

		reply := ""
		if calls < len(replies) {
			reply = replies[calls]
		}
		calls++
		json.NewEncoder(w).Encode(chatReply(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMotivation(t *testing.T) {
	server := newLLMServer(t, "  Ana, five days strong!  ", "")
	s := NewLLMService(server.URL+"/", "test-token", "test-model", time.Second)
	goal := models.Goal{Title: "Run", Why: "Health", StreakDays: 5}

	if got := s.Motivation(context.Background(), goal, "Ana"); got != "Ana, five days strong!" {
		t.Errorf("unexpected motivation: %q", got)
	}
	if got := s.Motivation(context.Background(), goal, "Ana"); got != MotivationEmpty {
		t.Errorf("expected empty-reply fallback, got %q", got)
	}
}

func TestGoalDetailsStripsFence(t *testing.T) {
	server := newLLMServer(t,
		"```json\n{\"description\": \"Run three times a week.\", \"why\": \"To feel alive.\"}\n```",
		"not json at all",
	)
	s := NewLLMService(server.URL, "test-token", "test-model", time.Second)

	got := s.GoalDetails(context.Background(), "Run")
	if got.Description != "Run three times a week." || got.Why != "To feel alive." {
		t.Errorf("unexpected details: %+v", got)
	}

	if got := s.GoalDetails(context.Background(), "Run"); got != (GoalDetails{}) {
		t.Errorf("expected empty details for unparseable reply, got %+v", got)
	}
}

func TestCommunityName(t *testing.T) {
	server := newLLMServer(t, "\"Dawn Patrol\"", "")
	s := NewLLMService(server.URL, "test-token", "test-model", time.Second)

	if got := s.CommunityName(context.Background(), "Run", "Every morning"); got != "Dawn Patrol" {
		t.Errorf("unexpected name: %q", got)
	}
	if got := s.CommunityName(context.Background(), "Run", ""); got != CommunityNameEmpty {
		t.Errorf("expected empty-reply fallback, got %q", got)
	}
}

func TestLLMFallbacksWithoutToken(t *testing.T) {
	s := NewLLMService("http://127.0.0.1:1", "", "test-model", time.Second)
	ctx := context.Background()

	if s.Enabled() {
		t.Fatal("service without token reports enabled")
	}
	if got := s.Motivation(ctx, models.Goal{}, "Ana"); got != MotivationUnavailable {
		t.Errorf("unexpected motivation: %q", got)
	}
	details := s.GoalDetails(ctx, "Run")
	if details.Description != GoalDescriptionUnavailable || details.Why != GoalWhyUnavailable {
		t.Errorf("unexpected details: %+v", details)
	}
	if got := s.CommunityName(ctx, "Run", ""); got != CommunityNameUnavailable {
		t.Errorf("unexpected name: %q", got)
	}
}

func TestLLMFallbacksOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()
	s := NewLLMService(server.URL, "test-token", "test-model", time.Second)
	ctx := context.Background()

	if got := s.Motivation(ctx, models.Goal{Title: "Run"}, "Ana"); got != MotivationFailed {
		t.Errorf("unexpected motivation: %q", got)
	}
	if got := s.GoalDetails(ctx, "Run"); got != (GoalDetails{}) {
		t.Errorf("expected empty details, got %+v", got)
	}
	if got := s.CommunityName(ctx, "Run", ""); got != CommunityNameFailed {
		t.Errorf("unexpected name: %q", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n{}\n```":     "{}",
		"  {}  ":           "{}",
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, strings.TrimSpace(got), want)
		}
	}
}

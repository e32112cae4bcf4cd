package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streaksync/internal/config"
	"streaksync/internal/db"
	"streaksync/internal/models"
	"streaksync/internal/realtime"
	"streaksync/internal/services"
	"streaksync/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret"

type testApp struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedChallenges(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppEnv:        "test",
		SiteURL:       "http://localhost:8080",
		SessionSecret: "test-session-secret",
		JWTSecret:     testSecret,
		JWTExpiry:     time.Hour,
		CORSOrigins:   []string{"http://localhost:3000"},
	}
	hub := realtime.NewHub()
	engine := New(Deps{
		Config:     cfg,
		DB:         conn,
		Hub:        hub,
		Profiles:   services.NewProfileService(conn, hub),
		Goals:      services.NewGoalService(conn, hub),
		Feed:       services.NewFeedService(conn, hub, nil, 0),
		Challenges: services.NewChallengeService(conn, hub),
		LLM:        services.NewLLMService("http://127.0.0.1:1", "", "test-model", time.Second),
	})
	return &testApp{t: t, engine: engine, db: conn}
}

func (a *testApp) user(id, name string) string {
	a.t.Helper()
	if err := a.db.Create(&models.User{ID: id, Name: name, Level: 1}).Error; err != nil {
		a.t.Fatalf("create user: %v", err)
	}
	token, err := utils.GenerateToken(testSecret, id, time.Hour)
	if err != nil {
		a.t.Fatalf("token: %v", err)
	}
	return token
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	if w := app.do("GET", "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	if w := app.do("GET", "/api/goals", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w := app.do("GET", "/api/goals", "not-a-token", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", w.Code)
	}
}

func TestGoalCheckInFlow(t *testing.T) {
	app := newTestApp(t)
	token := app.user("u1", "Ana")

	w := app.do("POST", "/api/goals", token, map[string]string{
		"title": "Run", "type": "Daily Habit", "category": "Fitness",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create goal: %d %s", w.Code, w.Body.String())
	}
	goal := decode[models.Goal](t, w)

	w = app.do("POST", "/api/goals/"+goal.ID+"/checkin", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("checkin: %d %s", w.Code, w.Body.String())
	}
	first := decode[struct {
		Goal      models.Goal `json:"goal"`
		CheckedIn bool        `json:"checked_in"`
		XP        int         `json:"xp_awarded"`
	}](t, w)
	if !first.CheckedIn || first.XP != 50 || first.Goal.StreakDays != 1 {
		t.Errorf("unexpected first check-in: %+v", first)
	}

	w = app.do("POST", "/api/goals/"+goal.ID+"/checkin", token, nil)
	if again := decode[map[string]any](t, w); again["checked_in"] != false {
		t.Errorf("expected repeated check-in to report false, got %v", again)
	}

	me := decode[models.User](t, app.do("GET", "/api/me", token, nil))
	if me.XP != 50 {
		t.Errorf("expected 50 xp, got %d", me.XP)
	}
}

func TestGoalValidationAndOwnership(t *testing.T) {
	app := newTestApp(t)
	ana := app.user("u1", "Ana")
	ben := app.user("u2", "Ben")

	w := app.do("POST", "/api/goals", ana, map[string]string{
		"title": "Run", "type": "Weekly", "category": "Fitness",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", w.Code)
	}

	w = app.do("POST", "/api/goals", ana, map[string]string{
		"title": "Run", "type": "Daily Habit", "category": "Fitness",
	})
	goal := decode[models.Goal](t, w)
	if w := app.do("DELETE", "/api/goals/"+goal.ID, ben, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting someone else's goal, got %d", w.Code)
	}
	if w := app.do("DELETE", "/api/goals/"+goal.ID, ana, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

func TestPostLikeAndPermissions(t *testing.T) {
	app := newTestApp(t)
	ana := app.user("u1", "Ana")
	ben := app.user("u2", "Ben")

	w := app.do("POST", "/api/posts", ana, map[string]string{"content": "Day 1!", "goal_title": "Run"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", w.Code, w.Body.String())
	}
	post := decode[models.Post](t, w)

	w = app.do("POST", "/api/posts/"+post.ID+"/like", ben, nil)
	liked := decode[struct {
		Post  models.Post `json:"post"`
		Liked bool        `json:"liked"`
	}](t, w)
	if !liked.Liked || liked.Post.Reactions != 1 {
		t.Errorf("unexpected like result: %+v", liked)
	}

	feed := decode[[]models.Post](t, app.do("GET", "/api/feed", ben, nil))
	if len(feed) != 1 || feed[0].Age != "0m ago" {
		t.Errorf("unexpected feed: %+v", feed)
	}

	w = app.do("POST", "/api/posts/"+post.ID+"/comments", ben, map[string]string{"content": "Go Ana"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", w.Code, w.Body.String())
	}
	comment := decode[models.Comment](t, w)

	if w := app.do("DELETE", "/api/posts/"+post.ID, ben, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 deleting someone else's post, got %d", w.Code)
	}
	if w := app.do("DELETE", "/api/posts/"+post.ID+"/comments/"+comment.ID, ana, nil); w.Code != http.StatusNoContent {
		t.Errorf("post owner should delete comments, got %d", w.Code)
	}
	if w := app.do("POST", "/api/posts/missing/like", ben, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestChallengesAPI(t *testing.T) {
	app := newTestApp(t)
	ana := app.user("u1", "Ana")
	app.user("u2", "Ben")

	list := decode[[]models.Challenge](t, app.do("GET", "/api/challenges?filter=active", ana, nil))
	if len(list) != 3 {
		t.Errorf("expected 3 seeded challenges, got %d", len(list))
	}
	if w := app.do("GET", "/api/challenges?filter=later", ana, nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad filter, got %d", w.Code)
	}

	w := app.do("POST", "/api/challenges/duel", ana, map[string]string{"opponent_id": "u2", "category": "Fitness"})
	if w.Code != http.StatusCreated {
		t.Fatalf("duel: %d %s", w.Code, w.Body.String())
	}
	duel := decode[models.Challenge](t, w)
	if duel.Title != "Ana vs Ben" || len(duel.Participants) != 2 {
		t.Errorf("unexpected duel: %+v", duel)
	}

	w = app.do("POST", "/api/challenges/c1/complete", ana, nil)
	if done := decode[map[string]any](t, w); done["xp_awarded"] != float64(500) {
		t.Errorf("expected 500 xp, got %v", done)
	}
	if w := app.do("DELETE", "/api/challenges/c1", ana, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 deleting a seeded challenge, got %d", w.Code)
	}
}

func TestAIFallbacks(t *testing.T) {
	app := newTestApp(t)
	token := app.user("u1", "Ana")

	w := app.do("POST", "/api/ai/community-name", token, map[string]string{"title": "Run"})
	if body := decode[map[string]string](t, w); body["name"] != services.CommunityNameUnavailable {
		t.Errorf("unexpected name: %v", body)
	}
	if w := app.do("POST", "/api/ai/motivation", token, map[string]string{"goal_id": "missing"}); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown goal, got %d", w.Code)
	}
}

func TestWebSocketGoalUpdates(t *testing.T) {
	app := newTestApp(t)
	token := app.user("u1", "Ana")
	server := httptest.NewServer(app.engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg realtime.Message
	conn.WriteJSON(realtime.Request{Action: "subscribe", Topic: "goals:u2"})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" {
		t.Errorf("expected subscription to another user's goals to fail, got %+v", msg)
	}

	conn.WriteJSON(realtime.Request{Action: "subscribe", Topic: "feed:x"})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" {
		t.Errorf("expected scoped feed topic to be rejected, got %+v", msg)
	}

	conn.WriteJSON(realtime.Request{Action: "subscribe", Topic: "goals:u1"})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Type != "snapshot" {
		t.Fatalf("expected snapshot, got %+v", msg)
	}

	w := app.do("POST", "/api/goals", token, map[string]string{
		"title": "Run", "type": "Daily Habit", "category": "Fitness",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create goal: %d", w.Code)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	goals, _ := msg.Data.([]any)
	if msg.Topic != "goals:u1" || len(goals) != 1 {
		t.Errorf("unexpected update: %+v", msg)
	}
}

func TestWebSocketRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	w := app.do("GET", "/ws", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

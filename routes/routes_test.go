package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Gandasoft/polylearner-web/middleware"
	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
	"github.com/matryer/is"
)

const upstreamToken = "backend-session-token"

// upstream 模拟后端服务
type upstream struct {
	mu      sync.Mutex
	goals   []models.Goal
	tasks   []models.Task
	reviews []models.TaskReviewRequest
	created [][]models.SuggestedTask
	coach   []gin.H
	chats   []models.CoachChatRequest
}

func (u *upstream) handler() http.Handler {
	r := gin.New()
	authed := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+upstreamToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		}
	}
	r.POST("/auth/google", func(c *gin.Context) {
		var req models.AuthExchangeRequest
		if c.ShouldBindJSON(&req) != nil || req.AccessToken != "google-ok" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid Google token"})
			return
		}
		c.JSON(http.StatusOK, models.AuthExchangeResponse{
			AccessToken: upstreamToken,
			User:        &models.User{ID: 1, Email: "ada@example.com", TokensUsed: 5, TokensLimit: 50},
		})
	})
	r.GET("/auth/me", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, models.User{ID: 1, Email: "ada@example.com", TokensUsed: 7, TokensLimit: 50})
	})
	r.GET("/goals", authed, func(c *gin.Context) {
		u.mu.Lock()
		defer u.mu.Unlock()
		c.JSON(http.StatusOK, u.goals)
	})
	r.GET("/tasks", authed, func(c *gin.Context) {
		u.mu.Lock()
		defer u.mu.Unlock()
		c.JSON(http.StatusOK, u.tasks)
	})
	r.POST("/tasks/reviews", authed, func(c *gin.Context) {
		var req models.TaskReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		u.reviews = append(u.reviews, req)
		for i := range u.tasks {
			if u.tasks[i].ID == req.TaskID {
				review := req.Review
				u.tasks[i].Review = &review
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.POST("/onboarding/validate-goal", authed, func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "AI provider unavailable"})
	})
	r.POST("/goals", authed, func(c *gin.Context) {
		var req models.GoalCreate
		c.ShouldBindJSON(&req)
		c.JSON(http.StatusOK, models.Goal{ID: 31, Goal: req.Goal})
	})
	r.POST("/onboarding/suggest-tasks", authed, func(c *gin.Context) {
		var req models.GoalSubmission
		c.ShouldBindJSON(&req)
		tasks := make([]models.SuggestedTask, 4)
		for i := range tasks {
			tasks[i] = models.SuggestedTask{Title: "step", Category: models.CategoryCoding, Artifact: models.ArtifactCode, TimeHours: 1, Priority: 6}
		}
		c.JSON(http.StatusOK, models.TaskSuggestionResponse{GoalID: req.GoalID, SuggestedTasks: tasks})
	})
	r.POST("/onboarding/create-tasks-from-suggestions", authed, func(c *gin.Context) {
		var req models.CreateFromSuggestionsRequest
		c.ShouldBindJSON(&req)
		u.mu.Lock()
		u.created = append(u.created, req.SuggestedTasks)
		u.mu.Unlock()
		out := make([]models.Task, len(req.SuggestedTasks))
		for i := range out {
			out[i] = models.Task{ID: int64(200 + i), GoalID: req.GoalID}
		}
		out[0].CalendarScheduling = &models.CalendarScheduling{Error: "Calendar permission missing"}
		c.JSON(http.StatusOK, out)
	})
	r.GET("/coach/sessions", authed, func(c *gin.Context) {
		u.mu.Lock()
		defer u.mu.Unlock()
		out := []gin.H{}
		for i := len(u.coach) - 1; i >= 0; i-- {
			out = append(out, u.coach[i])
		}
		c.JSON(http.StatusOK, out)
	})
	r.POST("/coach/sessions", authed, func(c *gin.Context) {
		var req models.CoachSessionCreate
		c.ShouldBindJSON(&req)
		u.mu.Lock()
		defer u.mu.Unlock()
		session := gin.H{"id": 7 + len(u.coach), "title": req.Title, "timestamp": "2024-05-08T12:00:00Z", "messages": []gin.H{}}
		u.coach = append(u.coach, session)
		c.JSON(http.StatusOK, session)
	})
	r.POST("/coach/chat", authed, func(c *gin.Context) {
		var req models.CoachChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		u.mu.Lock()
		u.chats = append(u.chats, req)
		u.mu.Unlock()
		c.JSON(http.StatusOK, models.CoachReply{Response: "Block two mornings a week for it."})
	})
	return r
}

type harness struct {
	router   *gin.Engine
	upstream *upstream
	session  *services.Session
}

func newHarness(t *testing.T, loopbackOnly bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	up := &upstream{}
	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	session := services.NewSession(srv.URL, srv.Client(), &services.MemoryTokenStore{})
	client := services.NewAPIClient(srv.URL, srv.Client(), session)
	client.OnUnauthorized = session.HandleUnauthorized

	r := gin.New()
	middleware.SetupMiddleware(r, nil)
	RegisterRoutes(r, Deps{
		Session:      session,
		Client:       client,
		Loader:       services.NewLoader(client),
		Flows:        services.NewFlowRegistry(client),
		Location:     time.UTC,
		DailyStart:   9,
		DailyEnd:     17,
		LoopbackOnly: loopbackOnly,
		Now:          func() time.Time { return time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC) },
	})
	return &harness{router: r, upstream: up, session: session}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:51234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if _, err := h.session.SignIn(context.Background(), "google-ok", 3600); err != nil {
		t.Fatal(err)
	}
}

func TestPing(t *testing.T) {
	is := is.New(t)
	h := newHarness(t, false)
	w, body := h.do(t, http.MethodGet, "/ping", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["message"], "pong")
	is.True(w.Header().Get(middleware.RequestIDHeader) != "")
}

func TestLoopbackOnly(t *testing.T) {
	is := is.New(t)
	h := newHarness(t, true)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.8:4000"
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	is.Equal(w.Code, http.StatusForbidden)

	w, _ = h.do(t, http.MethodGet, "/ping", nil)
	is.Equal(w.Code, http.StatusOK)
}

func TestAuthRoutes(t *testing.T) {
	is := is.New(t)
	h := newHarness(t, false)

	w, body := h.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	is.Equal(w.Code, http.StatusUnauthorized)
	is.Equal(body["code"], "session_expired")

	w, body = h.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"access_token": "google-bad"})
	is.Equal(w.Code, http.StatusUnauthorized)
	is.Equal(body["code"], "auth_exchange_failed")

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{})
	is.Equal(w.Code, http.StatusBadRequest)

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"access_token": "google-ok", "expires_in": 3600})
	is.Equal(w.Code, http.StatusOK)

	w, body = h.do(t, http.MethodGet, "/api/v1/auth/me?refresh=true", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["tokens_remaining"], float64(43))

	w, _ = h.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	is.Equal(w.Code, http.StatusNoContent)
	w, _ = h.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	is.Equal(w.Code, http.StatusUnauthorized)
}

func TestGoalsAndTasks(t *testing.T) {
	is := is.New(t)
	h := newHarness(t, false)
	h.login(t)

	h.upstream.goals = []models.Goal{{ID: 1, Goal: "Learn Spanish"}, {ID: 2, Goal: "Run 10k"}}
	h.upstream.tasks = []models.Task{
		{ID: 10, Title: "Vocab", GoalID: 1, Artifact: models.ArtifactNotes},
		{ID: 11, Title: "Grammar", Goal: " learn spanish ", Artifact: models.ArtifactNotes},
		{ID: 12, Title: "Orphan", GoalID: 99, Artifact: models.ArtifactCode},
	}

	w, body := h.do(t, http.MethodGet, "/api/v1/goals/1", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(len(body["tasks"].([]interface{})), 2)

	w, _ = h.do(t, http.MethodGet, "/api/v1/goals/5", nil)
	is.Equal(w.Code, http.StatusNotFound)

	w, body = h.do(t, http.MethodPost, "/api/v1/tasks/10/complete", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["changed"], true)
	is.Equal(len(h.upstream.reviews), 1)
	is.Equal(h.upstream.reviews[0].Notes, "Completed via task list")
	is.Equal(h.upstream.reviews[0].Artifact, "notes")

	// 已完成的任务重复勾选不发请求
	w, body = h.do(t, http.MethodPost, "/api/v1/tasks/10/complete", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["changed"], false)
	is.Equal(len(h.upstream.reviews), 1)

	w, body = h.do(t, http.MethodGet, "/api/v1/goals?tab=active", nil)
	is.Equal(w.Code, http.StatusOK)
	goals := body["goals"].([]interface{})
	is.Equal(len(goals), 1)
	progress := goals[0].(map[string]interface{})["progress"].(map[string]interface{})
	is.Equal(progress["percent"], float64(50))

	w, body = h.do(t, http.MethodGet, "/api/v1/tasks?tab=pending", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(len(body["tasks"].([]interface{})), 2)
	is.Equal(body["pending_count"], float64(2))

	w, _ = h.do(t, http.MethodGet, "/api/v1/tasks?tab=bogus", nil)
	is.Equal(w.Code, http.StatusBadRequest)

	w, body = h.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	is.Equal(w.Code, http.StatusOK)
	summary := body["summary"].(map[string]interface{})
	is.Equal(summary["completed_tasks"], float64(1))
}

func TestOnboardingRoutes(t *testing.T) {
	is := is.New(t)
	h := newHarness(t, false)
	h.login(t)

	w, body := h.do(t, http.MethodPost, "/api/v1/onboarding", nil)
	is.Equal(w.Code, http.StatusCreated)
	is.Equal(body["step"], "intro")
	base := "/api/v1/onboarding/" + body["id"].(string)

	w, body = h.do(t, http.MethodPost, base+"/suggest", nil)
	is.Equal(w.Code, http.StatusConflict)
	is.Equal(body["code"], "invalid_transition")

	w, _ = h.do(t, http.MethodPost, base+"/proceed", nil)
	is.Equal(w.Code, http.StatusOK)

	w, body = h.do(t, http.MethodPost, base+"/validate", gin.H{"goal": "  "})
	is.Equal(w.Code, http.StatusBadRequest)
	is.Equal(body["code"], "empty_goal")

	// AI 服务不可用，本地降级
	w, body = h.do(t, http.MethodPost, base+"/validate", gin.H{"goal": "Ship a Go side project"})
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["step"], "validation")
	validation := body["validation"].(map[string]interface{})
	is.Equal(validation["fallback"], true)

	w, body = h.do(t, http.MethodPost, base+"/suggest", nil)
	is.Equal(w.Code, http.StatusOK)
	items := body["batch"].(map[string]interface{})["items"].([]interface{})
	is.Equal(len(items), 4)
	firstID := items[0].(map[string]interface{})["id"].(string)

	w, body = h.do(t, http.MethodPost, base+"/toggle", gin.H{"id": firstID})
	is.Equal(w.Code, http.StatusOK)
	is.Equal(len(body["selected"].([]interface{})), 3)

	w, body = h.do(t, http.MethodPost, base+"/toggle", gin.H{"id": "not-in-batch"})
	is.Equal(w.Code, http.StatusBadRequest)
	is.Equal(body["code"], "unknown_suggestion")

	w, body = h.do(t, http.MethodPost, base+"/create", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["warning_code"], "calendar_permission_missing")
	outcome := body["outcome"].(map[string]interface{})
	is.Equal(outcome["created"], float64(3))
	is.Equal(outcome["goal_created"], true)
	is.Equal(len(h.upstream.created), 1)
	is.Equal(len(h.upstream.created[0]), 3)

	w, _ = h.do(t, http.MethodDelete, base, nil)
	is.Equal(w.Code, http.StatusNoContent)
	w, _ = h.do(t, http.MethodGet, base, nil)
	is.Equal(w.Code, http.StatusNotFound)
}

func TestCoachRoutes(t *testing.T) {
	is := is.New(t)
	h := newHarness(t, false)

	w, _ := h.do(t, http.MethodGet, "/api/v1/coach/sessions", nil)
	is.Equal(w.Code, http.StatusUnauthorized)

	h.login(t)
	w, body := h.do(t, http.MethodGet, "/api/v1/coach/sessions", nil)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(len(body["sessions"].([]interface{})), 0)

	// 不带请求体时使用带日期的默认标题
	w, body = h.do(t, http.MethodPost, "/api/v1/coach/sessions", nil)
	is.Equal(w.Code, http.StatusCreated)
	is.Equal(body["id"], "7")
	is.Equal(body["title"], "Goal Coaching Session - 5/8/2024")
	is.Equal(len(body["messages"].([]interface{})), 0)

	w, body = h.do(t, http.MethodPost, "/api/v1/coach/sessions", gin.H{"title": "Exam prep"})
	is.Equal(w.Code, http.StatusCreated)
	is.Equal(body["id"], "8")

	w, body = h.do(t, http.MethodGet, "/api/v1/coach/sessions", nil)
	is.Equal(w.Code, http.StatusOK)
	sessions := body["sessions"].([]interface{})
	is.Equal(len(sessions), 2)
	is.Equal(sessions[0].(map[string]interface{})["title"], "Exam prep") // 最近的在前

	w, body = h.do(t, http.MethodPost, "/api/v1/coach/chat", gin.H{"session_id": "7", "message": "   "})
	is.Equal(w.Code, http.StatusBadRequest)
	is.Equal(body["code"], "empty_message")

	w, body = h.do(t, http.MethodPost, "/api/v1/coach/chat", gin.H{"message": "hello"})
	is.Equal(w.Code, http.StatusBadRequest)
	is.Equal(body["code"], "bad_request")
	is.Equal(len(h.upstream.chats), 0)

	w, body = h.do(t, http.MethodPost, "/api/v1/coach/chat", gin.H{"session_id": 7, "message": "  How do I stay consistent? "})
	is.Equal(w.Code, http.StatusOK)
	is.Equal(body["response"], "Block two mornings a week for it.")
	is.Equal(len(h.upstream.chats), 1)
	is.Equal(h.upstream.chats[0].SessionID, models.CoachSessionID("7"))
	is.Equal(h.upstream.chats[0].Message, "How do I stay consistent?")
}

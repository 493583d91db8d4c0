package services

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// fakeBackend 模拟后端服务的 HTTP 接口
type fakeBackend struct {
	*httptest.Server

	mu         sync.Mutex
	validToken string
	user       models.User
	tasks      []models.Task
	rawTasks   string // 非空时原样返回，用于构造后端的脏数据
	goals      []models.Goal
	meStatus   int
	requests   []string
	coachTitle string
	coachChat  models.CoachChatRequest
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fb := &fakeBackend{
		validToken: signedToken(t, time.Now().Add(time.Hour)),
		user:       models.User{ID: 1, Email: "ada@example.com", Name: "Ada", TokensUsed: 10, TokensLimit: 100},
		meStatus:   http.StatusOK,
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		fb.mu.Lock()
		fb.requests = append(fb.requests, c.Request.Method+" "+c.Request.URL.Path)
		fb.mu.Unlock()
	})
	authed := func(c *gin.Context) {
		fb.mu.Lock()
		want := "Bearer " + fb.validToken
		fb.mu.Unlock()
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authentication credentials"})
		}
	}

	r.POST("/auth/google", func(c *gin.Context) {
		var req models.AuthExchangeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.AccessToken != "google-ok" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid Google token"})
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		u := fb.user
		c.JSON(http.StatusOK, models.AuthExchangeResponse{AccessToken: fb.validToken, User: &u})
	})
	r.GET("/auth/me", authed, func(c *gin.Context) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if fb.meStatus != http.StatusOK {
			c.JSON(fb.meStatus, gin.H{"detail": "boom"})
			return
		}
		c.JSON(http.StatusOK, fb.user)
	})
	r.GET("/tasks", authed, func(c *gin.Context) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if fb.rawTasks != "" {
			c.Data(http.StatusOK, "application/json", []byte(fb.rawTasks))
			return
		}
		c.JSON(http.StatusOK, fb.tasks)
	})
	r.POST("/tasks", authed, func(c *gin.Context) {
		var req models.TaskCreate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body", "title"}, "msg": "field required"}}})
			return
		}
		task := models.Task{ID: 55, Title: req.Title, Category: req.Category, GoalID: req.GoalID, Artifact: req.Artifact}
		if c.Query("auto_schedule") == "true" {
			task.CalendarScheduling = &models.CalendarScheduling{Error: "Calendar permission missing"}
		}
		c.JSON(http.StatusOK, task)
	})
	r.GET("/goals", authed, func(c *gin.Context) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		c.JSON(http.StatusOK, fb.goals)
	})
	r.DELETE("/goals/:id", authed, func(c *gin.Context) {
		if c.Param("id") != "3" {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Goal not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
	})
	r.GET("/calendar/events", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, models.CalendarEventsResponse{
			Events:  []models.CalendarEvent{{EventID: "e1", StartTime: c.Query("time_min")}},
			Count:   1,
			TimeMin: c.Query("time_min"),
			TimeMax: c.Query("time_max"),
		})
	})

	r.GET("/coach/sessions", authed, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`[
			{"id":12,"title":"Latest","timestamp":"2024-05-08T10:00:00Z","messages":[
				{"id":"m1","role":"user","content":"hi","timestamp":"2024-05-08T10:00:01Z"},
				{"id":"m2","role":"assistant","content":"hello","timestamp":"2024-05-08T10:00:02Z"}]},
			{"id":"s-3","title":"Older","timestamp":"2024-05-01T10:00:00Z","messages":null}
		]`))
	})
	r.POST("/coach/sessions", authed, func(c *gin.Context) {
		var req models.CoachSessionCreate
		c.ShouldBindJSON(&req)
		fb.mu.Lock()
		fb.coachTitle = req.Title
		fb.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"id": 13, "title": req.Title, "timestamp": "2024-05-08T11:00:00Z"})
	})
	r.POST("/coach/chat", authed, func(c *gin.Context) {
		var req models.CoachChatRequest
		c.ShouldBindJSON(&req)
		fb.mu.Lock()
		fb.coachChat = req
		fb.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"response": "Start with ten minutes a day."})
	})

	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) setMeStatus(status int) {
	fb.mu.Lock()
	fb.meStatus = status
	fb.mu.Unlock()
}

func (fb *fakeBackend) count(req string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, r := range fb.requests {
		if r == req {
			n++
		}
	}
	return n
}

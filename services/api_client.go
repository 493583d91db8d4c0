package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/models"
)

// TokenSource 提供当前 bearer 令牌，Session 实现了它
type TokenSource interface {
	Token() string
}

// APIClient 后端服务的纯请求/响应边界，不做重试
type APIClient struct {
	baseURL string
	hc      *http.Client
	tokens  TokenSource

	// OnUnauthorized 收到 401 时回调，参数为该请求携带的令牌，通常接到 Session.HandleUnauthorized
	OnUnauthorized func(token string)
}

func NewAPIClient(baseURL string, hc *http.Client, tokens TokenSource) *APIClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &APIClient{baseURL: baseURL, hc: hc, tokens: tokens}
}

func (c *APIClient) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	err := doJSON(ctx, c.hc, method, c.baseURL, endpoint, token, body, out)
	if rf, ok := IsRequestFailed(err); ok && rf.Status == http.StatusUnauthorized {
		if c.OnUnauthorized != nil {
			c.OnUnauthorized(token)
		}
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

// listRecords 拉取 JSON 数组并逐条解码
func listRecords[T any](ctx context.Context, c *APIClient, endpoint string) ([]T, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	var errs []error
	for i, rec := range raw {
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		out = append(out, v)
	}
	if len(errs) > 0 {
		config.Logger.Warnw("跳过无法解码的记录", "endpoint", endpoint, "skipped", len(errs), "total", len(raw))
		return out, &PartialDecodeError{Endpoint: endpoint, Total: len(raw), Errs: errs}
	}
	return out, nil
}

// Tasks

// ListTasks 逐条解码，坏记录被跳过并以 PartialDecodeError 返回，好记录照常返回
func (c *APIClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	return listRecords[models.Task](ctx, c, "/tasks")
}

// CreateTask autoSchedule 为 true 时后端会同步尝试写入日历，结果在 calendar_scheduling 中
func (c *APIClient) CreateTask(ctx context.Context, task models.TaskCreate, autoSchedule bool) (*models.Task, error) {
	endpoint := "/tasks"
	if autoSchedule {
		endpoint += "?auto_schedule=true"
	}
	var created models.Task
	if err := c.do(ctx, http.MethodPost, endpoint, task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) AddTaskReview(ctx context.Context, taskID int64, review models.Review) error {
	return c.do(ctx, http.MethodPost, "/tasks/reviews", models.TaskReviewRequest{TaskID: taskID, Review: review}, nil)
}

func (c *APIClient) GetRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	if err := c.do(ctx, http.MethodGet, "/recommendations", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// GetSchedule weekStart 为空时由后端决定当前周
func (c *APIClient) GetSchedule(ctx context.Context, weekStart string, dailyStart, dailyEnd int) (*models.WeekSchedule, error) {
	params := url.Values{}
	if weekStart != "" {
		params.Set("week_start", weekStart)
	}
	params.Set("daily_start", strconv.Itoa(dailyStart))
	params.Set("daily_end", strconv.Itoa(dailyEnd))

	var schedule models.WeekSchedule
	if err := c.do(ctx, http.MethodGet, "/schedule?"+params.Encode(), nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Weekly goals

func (c *APIClient) ListWeeklyGoals(ctx context.Context) ([]models.WeeklyGoal, error) {
	return listRecords[models.WeeklyGoal](ctx, c, "/weekly-goals")
}

func (c *APIClient) CreateWeeklyGoal(ctx context.Context, goal models.WeeklyGoalCreate) (*models.WeeklyGoal, error) {
	var created models.WeeklyGoal
	if err := c.do(ctx, http.MethodPost, "/weekly-goals", goal, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) AddWeeklyReview(ctx context.Context, weeklyGoalID int64, review models.Review) error {
	return c.do(ctx, http.MethodPost, "/weekly-goals/review", models.WeeklyReviewRequest{GoalID: weeklyGoalID, Review: review}, nil)
}

// Onboarding

func (c *APIClient) ValidateGoal(ctx context.Context, submission models.GoalSubmission) (*models.ValidationResult, error) {
	var result models.ValidationResult
	if err := c.do(ctx, http.MethodPost, "/onboarding/validate-goal", submission, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) SuggestTasks(ctx context.Context, submission models.GoalSubmission) (*models.TaskSuggestionResponse, error) {
	var result models.TaskSuggestionResponse
	if err := c.do(ctx, http.MethodPost, "/onboarding/suggest-tasks", submission, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) CreateTasksFromSuggestions(ctx context.Context, tasks []models.SuggestedTask, goalID int64) (*models.CreateFromSuggestionsResponse, error) {
	var result models.CreateFromSuggestionsResponse
	req := models.CreateFromSuggestionsRequest{SuggestedTasks: tasks, GoalID: goalID}
	if err := c.do(ctx, http.MethodPost, "/onboarding/create-tasks-from-suggestions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) ListOnboardingGoals(ctx context.Context) ([]models.Goal, error) {
	var goals []models.Goal
	if err := c.do(ctx, http.MethodGet, "/onboarding/goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// Goals

func (c *APIClient) ListGoals(ctx context.Context) ([]models.Goal, error) {
	var goals []models.Goal
	if err := c.do(ctx, http.MethodGet, "/goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (c *APIClient) CreateGoal(ctx context.Context, goal models.GoalCreate) (*models.Goal, error) {
	var created models.Goal
	if err := c.do(ctx, http.MethodPost, "/goals", goal, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) GetGoal(ctx context.Context, goalID int64) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, http.MethodGet, "/goals/"+strconv.FormatInt(goalID, 10), nil, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (c *APIClient) DeleteGoal(ctx context.Context, goalID int64) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/goals/"+strconv.FormatInt(goalID, 10), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Calendar

// CalendarEvents 零值时间表示不限制该端
func (c *APIClient) CalendarEvents(ctx context.Context, timeMin, timeMax time.Time) (*models.CalendarEventsResponse, error) {
	params := url.Values{}
	if !timeMin.IsZero() {
		params.Set("time_min", timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		params.Set("time_max", timeMax.Format(time.RFC3339))
	}
	endpoint := "/calendar/events"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var resp models.CalendarEventsResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsSessionExpired 便于调用方判断是否需要重新登录
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// Coach

// DefaultCoachSessionTitle 新会话的默认标题
func DefaultCoachSessionTitle(now time.Time) string {
	return "Goal Coaching Session - " + now.Format("1/2/2006")
}

func (c *APIClient) ListCoachSessions(ctx context.Context) ([]models.CoachSession, error) {
	var sessions []models.CoachSession
	if err := c.do(ctx, http.MethodGet, "/coach/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Messages == nil {
			sessions[i].Messages = []models.CoachMessage{}
		}
	}
	return sessions, nil
}

// CreateCoachSession title 为空时使用默认标题
func (c *APIClient) CreateCoachSession(ctx context.Context, title string) (*models.CoachSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultCoachSessionTitle(time.Now())
	}
	var session models.CoachSession
	if err := c.do(ctx, http.MethodPost, "/coach/sessions", models.CoachSessionCreate{Title: title}, &session); err != nil {
		return nil, err
	}
	if session.Title == "" {
		session.Title = title
	}
	session.Messages = []models.CoachMessage{}
	return &session, nil
}

// SendCoachMessage 发送前去掉首尾空白，空消息返回 ErrEmptyMessage 且不发请求
func (c *APIClient) SendCoachMessage(ctx context.Context, sessionID models.CoachSessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	var reply models.CoachReply
	if err := c.do(ctx, http.MethodPost, "/coach/chat", models.CoachChatRequest{SessionID: sessionID, Message: message}, &reply); err != nil {
		return "", err
	}
	return reply.Response, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/utils"
)

// OnboardingBackend 引导流程用到的后端接口，APIClient 实现了它
type OnboardingBackend interface {
	ValidateGoal(ctx context.Context, submission models.GoalSubmission) (*models.ValidationResult, error)
	SuggestTasks(ctx context.Context, submission models.GoalSubmission) (*models.TaskSuggestionResponse, error)
	CreateTasksFromSuggestions(ctx context.Context, tasks []models.SuggestedTask, goalID int64) (*models.CreateFromSuggestionsResponse, error)
	CreateGoal(ctx context.Context, goal models.GoalCreate) (*models.Goal, error)
}

// Step 引导流程的状态
type Step string

const (
	StepIntro      Step = "intro"
	StepGoalInput  Step = "goal-input"
	StepValidation Step = "validation"
	StepTasks      Step = "tasks"
	StepReview     Step = "review"
)

var (
	ErrFlowBusy   = errors.New("onboarding flow has a request in flight")
	ErrFlowClosed = errors.New("onboarding flow was abandoned")
)

// Suggestion 批次内的建议任务，ID 只在所属批次内有意义
type Suggestion struct {
	ID   string               `json:"id"`
	Task models.SuggestedTask `json:"task"`
}

// SuggestionBatch 一次 suggest 调用的结果
type SuggestionBatch struct {
	ID                      string                  `json:"id"`
	Items                   []Suggestion            `json:"items"`
	SchedulingStrategy      string                  `json:"scheduling_strategy"`
	EstimatedTotalHours     float64                 `json:"estimated_total_hours"`
	EnergyAllocation        models.EnergyAllocation `json:"energy_allocation"`
	BatchingRecommendations string                  `json:"batching_recommendations,omitempty"`
	WeeklyBreakdown         string                  `json:"weekly_breakdown,omitempty"`
}

// IDAt 第 i 个建议的 ID，越界返回空
func (b *SuggestionBatch) IDAt(i int) string {
	if b == nil || i < 0 || i >= len(b.Items) {
		return ""
	}
	return b.Items[i].ID
}

func (b *SuggestionBatch) contains(id string) bool {
	for _, s := range b.Items {
		if s.ID == id {
			return true
		}
	}
	return false
}

func newBatch(resp *models.TaskSuggestionResponse) *SuggestionBatch {
	b := &SuggestionBatch{
		ID:                      utils.GenerateID(),
		Items:                   make([]Suggestion, len(resp.SuggestedTasks)),
		SchedulingStrategy:      resp.SchedulingStrategy,
		EstimatedTotalHours:     resp.EstimatedTotalHours,
		EnergyAllocation:        resp.EnergyAllocation,
		BatchingRecommendations: resp.BatchingRecommendations,
		WeeklyBreakdown:         resp.WeeklyBreakdown,
	}
	for i, t := range resp.SuggestedTasks {
		b.Items[i] = Suggestion{ID: utils.GenerateID(), Task: t}
	}
	return b
}

// selection 绑定到具体批次，换批次即失效
type selection struct {
	batchID string
	ids     map[string]bool
}

// MaterializeOutcome 建议任务落库的结果。CalendarWarning 时任务已存在，只是未能排进日历
type MaterializeOutcome struct {
	Created          int      `json:"created"`
	CreatedTaskIDs   []int64  `json:"created_task_ids"`
	Message          string   `json:"message"`
	CalendarWarning  bool     `json:"calendar_warning"`
	SchedulingErrors []string `json:"scheduling_errors,omitempty"`
	GoalCreated      bool     `json:"goal_created"`
	Warning          error    `json:"-"`
}

// FlowState 流程的只读快照
type FlowState struct {
	ID         string                   `json:"id"`
	Step       Step                     `json:"step"`
	GoalText   string                   `json:"goal_text"`
	GoalID     int64                    `json:"goal_id,omitempty"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
	Batch      *SuggestionBatch         `json:"batch,omitempty"`
	Selected   []string                 `json:"selected"`
	Outcome    *MaterializeOutcome      `json:"outcome,omitempty"`
	Busy       bool                     `json:"busy"`
	StartedAt  time.Time                `json:"started_at"`
}

// Flow 目标引导的有限状态机：intro → goal-input → validation → tasks → review。
// 只由用户操作驱动，没有超时或后台跳转
type Flow struct {
	id        string
	backend   OnboardingBackend
	startedAt time.Time

	mu         sync.Mutex
	step       Step
	goalText   string
	goalID     int64
	validation *models.ValidationResult
	batch      *SuggestionBatch
	sel        selection
	outcome    *MaterializeOutcome
	busy       bool
	abandoned  bool
}

type FlowOption func(*Flow)

// WithCarryOver 用户显式带入的目标文本与 goal_id
func WithCarryOver(goalText string, goalID int64) FlowOption {
	return func(f *Flow) {
		f.goalText = strings.TrimSpace(goalText)
		f.goalID = goalID
	}
}

// NewFlow 每次进入都从 intro 开始
func NewFlow(backend OnboardingBackend, opts ...FlowOption) *Flow {
	f := &Flow{
		id:        utils.GenerateID(),
		backend:   backend,
		startedAt: time.Now(),
		step:      StepIntro,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) ID() string {
	return f.id
}

// begin 检查状态并占用流程，调用方在请求结束后必须调用 end
func (f *Flow) begin(allowed Step) error {
	if f.abandoned {
		return ErrFlowClosed
	}
	if f.busy {
		return ErrFlowBusy
	}
	if f.step != allowed {
		return fmt.Errorf("%w: cannot do this from %s", ErrInvalidTransition, f.step)
	}
	return nil
}

// Proceed intro → goal-input
func (f *Flow) Proceed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(StepIntro); err != nil {
		return err
	}
	f.step = StepGoalInput
	return nil
}

// Back 回到上一步；review 为终态
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		return ErrFlowClosed
	}
	if f.busy {
		return ErrFlowBusy
	}
	switch f.step {
	case StepGoalInput:
		f.step = StepIntro
	case StepValidation:
		f.step = StepGoalInput
	case StepTasks:
		f.step = StepValidation
	case StepIntro, StepReview:
		return fmt.Errorf("%w: no previous step from %s", ErrInvalidTransition, f.step)
	}
	return nil
}

// EditGoal validation → goal-input，保留文本与 goal_id
func (f *Flow) EditGoal() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(StepValidation); err != nil {
		return err
	}
	f.step = StepGoalInput
	return nil
}

// ValidateGoal 空白文本不发请求、不改变状态。请求失败时合成本地降级结果并照常进入 validation；
// 会话失效不降级
func (f *Flow) ValidateGoal(ctx context.Context, text string) (*models.ValidationResult, error) {
	trimmed := strings.TrimSpace(text)

	f.mu.Lock()
	if err := f.begin(StepGoalInput); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if trimmed == "" {
		f.mu.Unlock()
		return nil, ErrEmptyGoal
	}
	f.busy = true
	submission := models.GoalSubmission{Goal: trimmed, GoalID: f.goalID}
	f.mu.Unlock()

	result, err := f.backend.ValidateGoal(ctx, submission)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.abandoned {
		return nil, ErrFlowClosed
	}

	if err != nil {
		if errors.Is(err, ErrSessionExpired) || ctx.Err() != nil {
			return nil, err
		}
		config.Logger.Warnw("目标校验失败，使用本地降级结果", "flowID", f.id, "error", err)
		fallback := FallbackValidation(trimmed)
		result = &fallback
		// 服务端可能还没有这个目标，下一次成功调用时创建
		f.goalID = 0
	} else {
		f.goalID = result.GoalID
	}

	f.goalText = trimmed
	f.validation = result
	f.step = StepValidation
	out := *result
	return &out, nil
}

const fallbackFeedback = "We're having trouble connecting to our AI service, but you can still proceed! Here are some tips to make your goal even better."

var (
	measurablePattern = regexp.MustCompile(`(?i)\d+|hours|weeks|projects?|by|until`)
	timeBoundPattern  = regexp.MustCompile(`(?i)by|until|within|in \d+`)
)

// FallbackValidation AI 服务不可用时的本地 SMART 近似
func FallbackValidation(goal string) models.ValidationResult {
	trimmed := strings.TrimSpace(goal)
	return models.ValidationResult{
		GoalID:  0,
		IsValid: false,
		ValidationDetails: models.ValidationDetails{
			Specific:   utf8.RuneCountInString(trimmed) > 20,
			Measurable: measurablePattern.MatchString(trimmed),
			Achievable: true,
			Relevant:   true,
			TimeBound:  timeBoundPattern.MatchString(trimmed),
		},
		Feedback: fallbackFeedback,
		Suggestions: []string{
			"Add specific numbers or milestones (e.g., '3 projects', '40 hours')",
			"Include a clear deadline or timeframe",
			"Specify what success looks like",
		},
		RefinedVersions: []models.RefinedVersion{{
			Goal:        trimmed,
			Improvement: "Your original goal",
			WhyBetter:   "Start with what you have and refine as you go",
		}},
		Fallback: true,
	}
}

// ChooseRefinedVersion 采用校验结果中的第 i 个改写版本
func (f *Flow) ChooseRefinedVersion(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(StepValidation); err != nil {
		return err
	}
	if f.validation == nil || i < 0 || i >= len(f.validation.RefinedVersions) {
		return fmt.Errorf("refined version %d out of range", i)
	}
	f.goalText = strings.TrimSpace(f.validation.RefinedVersions[i].Goal)
	return nil
}

// GenerateTasks 只能在校验（成功或降级）完成之后调用。失败不降级，返回 ErrSuggestionUnavailable。
// 成功后默认全选，旧的选择随旧批次一起作废
func (f *Flow) GenerateTasks(ctx context.Context) (*SuggestionBatch, error) {
	f.mu.Lock()
	if err := f.begin(StepValidation); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.goalText == "" {
		f.mu.Unlock()
		return nil, ErrEmptyGoal
	}
	f.busy = true
	submission := models.GoalSubmission{Goal: f.goalText, GoalID: f.goalID}
	f.mu.Unlock()

	resp, err := f.backend.SuggestTasks(ctx, submission)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.abandoned {
		return nil, ErrFlowClosed
	}
	if err != nil {
		config.Logger.Errorw("生成任务建议失败", "flowID", f.id, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSuggestionUnavailable, err)
	}

	if resp.GoalID != 0 {
		f.goalID = resp.GoalID
	}
	f.batch = newBatch(resp)
	f.sel = selection{batchID: f.batch.ID, ids: make(map[string]bool, len(f.batch.Items))}
	for _, s := range f.batch.Items {
		f.sel.ids[s.ID] = true
	}
	f.step = StepTasks
	return copyBatch(f.batch), nil
}

// Toggle 切换某个建议的选中状态，ID 必须属于当前批次
func (f *Flow) Toggle(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(StepTasks); err != nil {
		return err
	}
	if f.batch == nil || f.sel.batchID != f.batch.ID || !f.batch.contains(id) {
		return fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
	}
	if f.sel.ids[id] {
		delete(f.sel.ids, id)
	} else {
		f.sel.ids[id] = true
	}
	return nil
}

func (f *Flow) SelectAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(StepTasks); err != nil {
		return err
	}
	for _, s := range f.batch.Items {
		f.sel.ids[s.ID] = true
	}
	return nil
}

func (f *Flow) ClearSelection() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(StepTasks); err != nil {
		return err
	}
	f.sel.ids = map[string]bool{}
	return nil
}

// MaterializeTasks 只提交选中的建议任务。还没有服务端目标时先创建目标。
// 日历排期失败不算失败：任务已创建，Outcome.Warning 为 ErrCalendarPermissionMissing
func (f *Flow) MaterializeTasks(ctx context.Context) (*MaterializeOutcome, error) {
	f.mu.Lock()
	if err := f.begin(StepTasks); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	chosen := f.selectedTasks()
	if len(chosen) == 0 {
		f.mu.Unlock()
		return nil, ErrNoSelection
	}
	f.busy = true
	goalID, goalText := f.goalID, f.goalText
	f.mu.Unlock()

	goalCreated := false
	if goalID == 0 {
		goal, err := f.backend.CreateGoal(ctx, models.GoalCreate{Goal: goalText})
		if err != nil {
			f.finish()
			config.Logger.Errorw("创建目标失败", "flowID", f.id, "error", err)
			return nil, fmt.Errorf("create goal before materializing: %w", err)
		}
		goalID = goal.ID
		goalCreated = true
		config.Logger.Infow("降级校验后补建目标", "flowID", f.id, "goalID", goalID)

		// 先记下 goal_id，落库失败重试时不会重复创建目标
		f.mu.Lock()
		if !f.abandoned {
			f.goalID = goalID
		}
		f.mu.Unlock()
	}

	resp, err := f.backend.CreateTasksFromSuggestions(ctx, chosen, goalID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.abandoned {
		return nil, ErrFlowClosed
	}
	if err != nil {
		config.Logger.Errorw("建议任务落库失败", "flowID", f.id, "error", err)
		return nil, err
	}

	outcome := &MaterializeOutcome{
		Created:        resp.Count,
		CreatedTaskIDs: resp.CreatedTaskIDs,
		Message:        resp.Message,
		GoalCreated:    goalCreated,
	}
	for _, t := range resp.Tasks {
		if msg := t.SchedulingError(); msg != "" {
			outcome.SchedulingErrors = append(outcome.SchedulingErrors, msg)
		}
	}
	if len(outcome.SchedulingErrors) > 0 {
		outcome.CalendarWarning = true
		outcome.Warning = ErrCalendarPermissionMissing
		config.Logger.Warnw("任务已创建但未能排进日历", "flowID", f.id, "errors", outcome.SchedulingErrors)
	}

	f.outcome = outcome
	f.step = StepReview
	out := *outcome
	return &out, nil
}

func (f *Flow) finish() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

// selectedTasks 按批次顺序取出选中的任务，调用方持有锁
func (f *Flow) selectedTasks() []models.SuggestedTask {
	if f.batch == nil || f.sel.batchID != f.batch.ID {
		return nil
	}
	out := make([]models.SuggestedTask, 0, len(f.sel.ids))
	for _, s := range f.batch.Items {
		if f.sel.ids[s.ID] {
			out = append(out, s.Task)
		}
	}
	return out
}

// Abandon 离开流程；之后返回的请求结果会被丢弃
func (f *Flow) Abandon() {
	f.mu.Lock()
	f.abandoned = true
	f.mu.Unlock()
}

func (f *Flow) Snapshot() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := FlowState{
		ID:        f.id,
		Step:      f.step,
		GoalText:  f.goalText,
		GoalID:    f.goalID,
		Batch:     copyBatch(f.batch),
		Selected:  []string{},
		Busy:      f.busy,
		StartedAt: f.startedAt,
	}
	if f.validation != nil {
		v := *f.validation
		st.Validation = &v
	}
	if f.outcome != nil {
		o := *f.outcome
		st.Outcome = &o
	}
	if f.batch != nil && f.sel.batchID == f.batch.ID {
		for _, s := range f.batch.Items {
			if f.sel.ids[s.ID] {
				st.Selected = append(st.Selected, s.ID)
			}
		}
	}
	return st
}

func copyBatch(b *SuggestionBatch) *SuggestionBatch {
	if b == nil {
		return nil
	}
	c := *b
	c.Items = append([]Suggestion(nil), b.Items...)
	return &c
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/models"
)

// ScreenBackend 页面加载所需的后端读接口，APIClient 实现了它
type ScreenBackend interface {
	ListGoals(ctx context.Context) ([]models.Goal, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListWeeklyGoals(ctx context.Context) ([]models.WeeklyGoal, error)
	CalendarEvents(ctx context.Context, timeMin, timeMax time.Time) (*models.CalendarEventsResponse, error)
}

// Collection 快照中的集合名
type Collection string

const (
	CollectionGoals       Collection = "goals"
	CollectionTasks       Collection = "tasks"
	CollectionWeeklyGoals Collection = "weekly_goals"
	CollectionEvents      Collection = "events"
)

// Want 一个页面需要加载哪些集合
type Want struct {
	Goals       bool
	Tasks       bool
	WeeklyGoals bool
	Events      bool
	EventsFrom  time.Time
	EventsTo    time.Time
}

// Snapshot 一次页面加载的结果，归该页面所有，按约定不被修改。
// 失败的集合为空切片，错误记录在 Errors 中供提示；
// 部分记录解码失败时保留其余记录，同样记录在 Errors 中
type Snapshot struct {
	Goals       []models.Goal          `json:"goals"`
	Tasks       []models.Task          `json:"tasks"`
	WeeklyGoals []models.WeeklyGoal    `json:"weekly_goals"`
	Events      []models.CalendarEvent `json:"events"`
	LoadedAt    time.Time              `json:"loaded_at"`
	Errors      map[Collection]error   `json:"-"`
}

// Failed 是否有集合加载失败，部分解码失败也算
func (s *Snapshot) Failed(c Collection) bool {
	_, ok := s.Errors[c]
	return ok
}

// Partial 集合是否只丢了部分记录
func (s *Snapshot) Partial(c Collection) bool {
	_, ok := IsPartialDecode(s.Errors[c])
	return ok
}

// ErrorMessages 便于序列化给展示层
func (s *Snapshot) ErrorMessages() map[Collection]string {
	out := make(map[Collection]string, len(s.Errors))
	for c, err := range s.Errors {
		out[c] = err.Error()
	}
	return out
}

type Loader struct {
	backend ScreenBackend
	now     func() time.Time
}

func NewLoader(backend ScreenBackend) *Loader {
	return &Loader{backend: backend, now: time.Now}
}

// Load 并发拉取各集合，单个失败只记录日志并置空，不影响其它集合
func (l *Loader) Load(ctx context.Context, want Want) *Snapshot {
	snap := &Snapshot{
		Goals:       []models.Goal{},
		Tasks:       []models.Task{},
		WeeklyGoals: []models.WeeklyGoal{},
		Events:      []models.CalendarEvent{},
		Errors:      map[Collection]error{},
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(c Collection, err error) {
		config.Logger.Warnw("加载集合失败", "collection", c, "error", err)
		mu.Lock()
		snap.Errors[c] = err
		mu.Unlock()
	}

	if want.Goals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			goals, err := l.backend.ListGoals(ctx)
			if err != nil {
				fail(CollectionGoals, err)
				return
			}
			mu.Lock()
			snap.Goals = nonNil(goals)
			mu.Unlock()
		}()
	}
	if want.Tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks, err := l.backend.ListTasks(ctx)
			if err != nil {
				fail(CollectionTasks, err)
				if _, partial := IsPartialDecode(err); !partial {
					return
				}
			}
			mu.Lock()
			snap.Tasks = nonNil(tasks)
			mu.Unlock()
		}()
	}
	if want.WeeklyGoals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			weekly, err := l.backend.ListWeeklyGoals(ctx)
			if err != nil {
				fail(CollectionWeeklyGoals, err)
				if _, partial := IsPartialDecode(err); !partial {
					return
				}
			}
			mu.Lock()
			snap.WeeklyGoals = nonNil(weekly)
			mu.Unlock()
		}()
	}
	if want.Events {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := l.backend.CalendarEvents(ctx, want.EventsFrom, want.EventsTo)
			if err != nil {
				fail(CollectionEvents, err)
				return
			}
			mu.Lock()
			snap.Events = nonNil(resp.Events)
			mu.Unlock()
		}()
	}

	wg.Wait()
	snap.LoadedAt = l.now()
	return snap
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/matryer/is"
)

type fakeScreenBackend struct {
	goals     []models.Goal
	tasks     []models.Task
	weekly    []models.WeeklyGoal
	events    []models.CalendarEvent
	failGoals error
	failTasks error
	calls     int32
}

func (f *fakeScreenBackend) ListGoals(ctx context.Context) ([]models.Goal, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.goals, f.failGoals
}

func (f *fakeScreenBackend) ListTasks(ctx context.Context) ([]models.Task, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.failTasks != nil {
		return nil, f.failTasks
	}
	return f.tasks, nil
}

func (f *fakeScreenBackend) ListWeeklyGoals(ctx context.Context) ([]models.WeeklyGoal, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.weekly, nil
}

func (f *fakeScreenBackend) CalendarEvents(ctx context.Context, timeMin, timeMax time.Time) (*models.CalendarEventsResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return &models.CalendarEventsResponse{Events: f.events, Count: len(f.events)}, nil
}

func TestLoader_Load(t *testing.T) {
	is := is.New(t)

	backend := &fakeScreenBackend{
		goals:  []models.Goal{{ID: 1, Goal: "a"}},
		events: []models.CalendarEvent{{EventID: "e"}},
	}
	snap := NewLoader(backend).Load(context.Background(), Want{Goals: true, Tasks: true})

	is.Equal(atomic.LoadInt32(&backend.calls), int32(2)) // 只拉取请求的集合
	is.Equal(len(snap.Goals), 1)
	is.True(snap.Tasks != nil) // 后端返回 nil 时为空切片
	is.Equal(len(snap.Tasks), 0)
	is.Equal(len(snap.Events), 0)
	is.Equal(len(snap.Errors), 0)
	is.True(!snap.LoadedAt.IsZero())
}

func TestLoader_PartialFailure(t *testing.T) {
	is := is.New(t)

	boom := errors.New("connection reset")
	backend := &fakeScreenBackend{
		goals:     []models.Goal{{ID: 1, Goal: "a"}},
		failTasks: boom,
		weekly:    []models.WeeklyGoal{{ID: 3, WeekNumber: 12}},
		events:    []models.CalendarEvent{{EventID: "e"}},
	}
	snap := NewLoader(backend).Load(context.Background(), Want{Goals: true, Tasks: true, WeeklyGoals: true, Events: true})

	is.True(snap.Failed(CollectionTasks))
	is.True(!snap.Failed(CollectionGoals))
	is.True(errors.Is(snap.Errors[CollectionTasks], boom))
	is.Equal(len(snap.Tasks), 0)
	is.Equal(len(snap.Goals), 1)
	is.Equal(len(snap.WeeklyGoals), 1)
	is.Equal(len(snap.Events), 1)
	is.Equal(snap.ErrorMessages(), map[Collection]string{CollectionTasks: "connection reset"})
}

func TestLoader_KeepsValidTasks(t *testing.T) {
	is := is.New(t)
	fb := newFakeBackend(t)
	fb.rawTasks = mixedTasks
	fb.goals = []models.Goal{{ID: 1, Goal: "a"}}

	c := NewAPIClient(fb.URL, nil, staticToken(fb.validToken))
	snap := NewLoader(c).Load(context.Background(), Want{Goals: true, Tasks: true})

	is.Equal(len(snap.Goals), 1)
	is.Equal(len(snap.Tasks), 2)
	is.True(snap.Failed(CollectionTasks))
	is.True(snap.Partial(CollectionTasks))
	is.True(!snap.Partial(CollectionGoals))
	is.True(strings.Contains(snap.ErrorMessages()[CollectionTasks], "skipped 2 of 4"))
}

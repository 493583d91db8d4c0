package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/matryer/is"
)

type scriptedCoach struct {
	sessions []models.CoachSession
	created  int
	sent     []string
	sendErr  error
}

func (b *scriptedCoach) ListCoachSessions(ctx context.Context) ([]models.CoachSession, error) {
	return b.sessions, nil
}

func (b *scriptedCoach) CreateCoachSession(ctx context.Context, title string) (*models.CoachSession, error) {
	b.created++
	return &models.CoachSession{ID: "new", Title: "Goal Coaching Session - 5/8/2024", Messages: []models.CoachMessage{}}, nil
}

func (b *scriptedCoach) SendCoachMessage(ctx context.Context, id models.CoachSessionID, message string) (string, error) {
	if b.sendErr != nil {
		return "", b.sendErr
	}
	b.sent = append(b.sent, string(id)+":"+message)
	return "reply to " + message, nil
}

func chatWith(backend coachBackend, input string) (*coachChat, *bytes.Buffer) {
	var out bytes.Buffer
	return &coachChat{backend: backend, in: bufio.NewScanner(strings.NewReader(input)), out: &out}, &out
}

func TestCoachChat_ContinuesMostRecent(t *testing.T) {
	is := is.New(t)
	backend := &scriptedCoach{sessions: []models.CoachSession{
		{ID: "2", Title: "Latest", Messages: []models.CoachMessage{{Role: models.CoachRoleUser, Content: "earlier question"}}},
		{ID: "1", Title: "Older"},
	}}
	c, out := chatWith(backend, "  \nHow do I start?\n:quit\nnever sent\n")

	is.NoErr(c.run(context.Background(), "", false))
	is.Equal(backend.created, 0)
	is.Equal(backend.sent, []string{"2:How do I start?"}) // 空行不发送
	is.True(strings.Contains(out.String(), "Latest"))
	is.True(strings.Contains(out.String(), "earlier question"))
	is.True(strings.Contains(out.String(), "reply to How do I start?"))
}

func TestCoachChat_CreatesWhenNone(t *testing.T) {
	is := is.New(t)
	backend := &scriptedCoach{}
	c, _ := chatWith(backend, "hi\n")

	is.NoErr(c.run(context.Background(), "", false))
	is.Equal(backend.created, 1)
	is.Equal(backend.sent, []string{"new:hi"})
}

func TestCoachChat_PickSession(t *testing.T) {
	is := is.New(t)
	backend := &scriptedCoach{sessions: []models.CoachSession{{ID: "2"}, {ID: "1"}}}

	c, _ := chatWith(backend, "older\n")
	is.NoErr(c.run(context.Background(), "1", false))
	is.Equal(backend.sent, []string{"1:older"})

	c, _ = chatWith(backend, "")
	is.True(c.run(context.Background(), "9", false) != nil)

	c, _ = chatWith(backend, "")
	is.NoErr(c.run(context.Background(), "", true))
	is.Equal(backend.created, 1)
}

func TestCoachChat_SendErrors(t *testing.T) {
	is := is.New(t)
	backend := &scriptedCoach{sessions: []models.CoachSession{{ID: "2"}}, sendErr: errors.New("bad gateway")}
	c, out := chatWith(backend, "one\ntwo\n")
	is.NoErr(c.run(context.Background(), "", false))
	is.Equal(strings.Count(out.String(), "Could not reach the coach"), 2)

	backend.sendErr = services.ErrSessionExpired
	c, _ = chatWith(backend, "one\ntwo\n")
	is.True(errors.Is(c.run(context.Background(), "", false), services.ErrSessionExpired))
}

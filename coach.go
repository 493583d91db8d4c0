package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/Gandasoft/polylearner-web/ui"
	"github.com/spf13/cobra"
)

// coachBackend 教练对话用到的后端接口，APIClient 实现了它
type coachBackend interface {
	ListCoachSessions(ctx context.Context) ([]models.CoachSession, error)
	CreateCoachSession(ctx context.Context, title string) (*models.CoachSession, error)
	SendCoachMessage(ctx context.Context, sessionID models.CoachSessionID, message string) (string, error)
}

func coachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Chat with the AI goal coach",
	}

	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "List coaching sessions, most recent first",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			list, err := a.client.ListCoachSessions(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println(ui.Muted.Render("No sessions yet, run `polylearner coach chat` to start one"))
			}
			for _, s := range list {
				fmt.Printf("%s %s %s\n", ui.Muted.Render(string(s.ID)), s.Title, ui.Muted.Render(fmt.Sprintf("(%d messages)", len(s.Messages))))
			}
			return nil
		}),
	}

	create := &cobra.Command{
		Use:   "new",
		Short: "Start a new coaching session",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			s, err := a.client.CreateCoachSession(ctx, title)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success.Render(fmt.Sprintf("Started %q (%s)", s.Title, s.ID)))
			return nil
		}),
	}
	create.Flags().String("title", "", "Session title, defaults to today's date")

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the coach, continuing the most recent session",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("session")
			fresh, _ := cmd.Flags().GetBool("new")
			c := &coachChat{backend: a.client, in: bufio.NewScanner(os.Stdin), out: os.Stdout}
			return c.run(ctx, models.CoachSessionID(id), fresh)
		}),
	}
	chat.Flags().String("session", "", "Session id to continue")
	chat.Flags().Bool("new", false, "Always start a new session")

	cmd.AddCommand(sessions, create, chat)
	return cmd
}

// coachChat 按行读取输入，:quit 或输入结束时退出
type coachChat struct {
	backend coachBackend
	in      *bufio.Scanner
	out     io.Writer
}

func (c *coachChat) run(ctx context.Context, id models.CoachSessionID, fresh bool) error {
	session, err := c.pick(ctx, id, fresh)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, ui.Title.Render(session.Title))
	for _, m := range session.Messages {
		fmt.Fprintln(c.out, ui.CoachLine(m.Role, m.Content))
	}
	fmt.Fprintln(c.out, ui.Muted.Render("Type a message, :quit to leave"))

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		text := strings.TrimSpace(c.in.Text())
		switch text {
		case "":
			continue
		case ":quit", ":q":
			return nil
		}

		reply, err := c.backend.SendCoachMessage(ctx, session.ID, text)
		if services.IsSessionExpired(err) {
			return err
		}
		if err != nil {
			// 发送失败保留会话，用户可以重试
			fmt.Fprintln(c.out, ui.Danger.Render("Could not reach the coach: "+err.Error()))
			continue
		}
		fmt.Fprintln(c.out, ui.CoachLine(models.CoachRoleAssistant, reply))
	}
}

// pick 指定 id 时找对应会话，否则沿用最近的会话，没有会话时新建
func (c *coachChat) pick(ctx context.Context, id models.CoachSessionID, fresh bool) (*models.CoachSession, error) {
	if fresh {
		return c.backend.CreateCoachSession(ctx, "")
	}
	sessions, err := c.backend.ListCoachSessions(ctx)
	if err != nil {
		return nil, err
	}
	if id != "" {
		for i := range sessions {
			if sessions[i].ID == id {
				return &sessions[i], nil
			}
		}
		return nil, errors.New("no coaching session " + string(id))
	}
	if len(sessions) > 0 {
		return &sessions[0], nil
	}
	return c.backend.CreateCoachSession(ctx, "")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/Gandasoft/polylearner-web/ui"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange an identity provider access token for a session",
		RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("access-token")
			expiresIn, _ := cmd.Flags().GetInt("expires-in")
			if token == "" {
				return errors.New("--access-token is required")
			}
			user, err := a.session.SignIn(ctx, token, expiresIn)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success.Render("Signed in as " + user.GetDisplayName()))
			return nil
		}),
	}
	cmd.Flags().String("access-token", "", "Access token from the identity provider")
	cmd.Flags().Int("expires-in", 3600, "Lifetime of the access token in seconds")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session token",
		RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			a.session.SignOut(ctx)
			fmt.Println("Signed out")
			return nil
		}),
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and remaining AI quota",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			user := a.session.User()
			fmt.Println(ui.Title.Render(user.GetDisplayName()))
			fmt.Printf("  Email:  %s\n", user.Email)
			fmt.Printf("  Tokens: %d / %d remaining\n", user.TokensRemaining(), user.TokensLimit)
			return nil
		}),
	}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary of goals, progress and upcoming tasks",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			snap := a.loader.Load(ctx, services.Want{Goals: true, Tasks: true})
			printLoadErrors(snap)

			s := services.Summarize(snap.Goals, snap.Tasks)
			stats := services.ComputeStats(snap.Goals, snap.Tasks)
			fmt.Println(ui.Title.Render("Dashboard"))
			fmt.Printf("  Active goals:  %d\n", s.ActiveGoals)
			fmt.Printf("  Tasks:         %d/%d done (%d%%)\n", s.CompletedTasks, s.TotalTasks, s.CompletionRate)
			fmt.Printf("  Level:         %d (%d/%d pts)\n", stats.Level, stats.Points, services.PointsPerLevel)

			fmt.Println(ui.Title.Render("\nUp next"))
			if len(s.Upcoming) == 0 {
				fmt.Println(ui.Muted.Render("  nothing pending"))
			}
			for _, t := range s.Upcoming {
				fmt.Println("  " + ui.TaskLine(t, services.MergeSchedule(t, a.loc)))
			}

			fmt.Println(ui.Title.Render("\nGoals"))
			for _, v := range s.TopGoals {
				fmt.Println("  " + ui.GoalLine(v))
			}
			return nil
		}),
	}
}

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List goals with live progress",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			tab, _ := cmd.Flags().GetString("tab")
			query, _ := cmd.Flags().GetString("query")

			snap := a.loader.Load(ctx, services.Want{Goals: true, Tasks: true})
			printLoadErrors(snap)

			views := services.FilterGoals(snap.Goals, snap.Tasks, services.GoalFilter{Tab: services.GoalTab(tab), Query: query})
			if len(views) == 0 {
				fmt.Println(ui.Muted.Render("No goals yet, run `polylearner onboard` to create one"))
			}
			for _, v := range views {
				fmt.Println(ui.GoalLine(v))
			}
			return nil
		}),
	}
	cmd.Flags().String("tab", string(services.GoalTabAll), "all, active or completed")
	cmd.Flags().StringP("query", "q", "", "Filter by goal text")
	return cmd
}

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks grouped under their goals",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			tab, _ := cmd.Flags().GetString("tab")
			query, _ := cmd.Flags().GetString("query")

			snap := a.loader.Load(ctx, services.Want{Goals: true, Tasks: true})
			printLoadErrors(snap)

			tasks := services.FilterTasks(snap.Tasks, services.TaskFilter{Tab: services.TaskTab(tab), Query: query})
			grouping := services.GroupTasksByGoal(snap.Goals, tasks)
			for _, g := range snap.Goals {
				group := grouping.ByGoal[g.ID]
				if len(group) == 0 {
					continue
				}
				fmt.Println(ui.Title.Render(g.Goal))
				for _, t := range group {
					fmt.Println("  " + ui.TaskLine(t, services.MergeSchedule(t, a.loc)))
				}
			}
			if len(grouping.Orphans) > 0 {
				fmt.Println(ui.Title.Render("Other tasks"))
				for _, t := range grouping.Orphans {
					fmt.Println("  " + ui.TaskLine(t, services.MergeSchedule(t, a.loc)))
				}
			}
			if len(tasks) == 0 {
				fmt.Println(ui.Muted.Render("No tasks"))
			}
			return nil
		}),
	}
	cmd.Flags().String("tab", string(services.TaskTabAll), "all, pending or completed")
	cmd.Flags().StringP("query", "q", "", "Filter by title or goal text")
	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show calendar events and scheduled tasks for a day",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			day := time.Now().In(a.loc)
			if raw != "" {
				parsed, err := time.ParseInLocation("2006-01-02", raw, a.loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", raw)
				}
				day = parsed
			}
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, a.loc)

			snap := a.loader.Load(ctx, services.Want{
				Tasks:      true,
				Events:     true,
				EventsFrom: start,
				EventsTo:   start.AddDate(0, 0, 1),
			})
			printLoadErrors(snap)

			view := services.BuildDayView(start, snap.Tasks, snap.Events, a.loc)
			fmt.Println(ui.Title.Render(start.Format("Monday, Jan 2 2006")))
			fmt.Println(ui.Title.Render("\nEvents"))
			if len(view.Events) == 0 {
				fmt.Println(ui.Muted.Render("  none"))
			}
			for _, e := range view.Events {
				fmt.Printf("  %s %s\n", ui.Muted.Render(eventTime(e.StartTime, a.loc)), e.TaskTitle)
			}
			fmt.Println(ui.Title.Render("\nTasks"))
			if len(view.Tasks) == 0 {
				fmt.Println(ui.Muted.Render("  none"))
			}
			for _, st := range view.Tasks {
				fmt.Println("  " + ui.TaskLine(st.Task, st.Schedule))
			}
			return nil
		}),
	}
	cmd.Flags().String("date", "", "Day to show (YYYY-MM-DD), defaults to today")
	return cmd
}

func eventTime(s string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.In(loc).Format("15:04")
}

func printLoadErrors(snap *services.Snapshot) {
	for c, msg := range snap.ErrorMessages() {
		fmt.Println(ui.Warning.Render(fmt.Sprintf("could not load %s: %s", c, msg)))
	}
}

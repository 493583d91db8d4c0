package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/Gandasoft/polylearner-web/ui"
	"github.com/spf13/cobra"
)

func onboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Turn a goal into a set of AI-suggested tasks",
		RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			goal, _ := cmd.Flags().GetString("goal")
			goalID, _ := cmd.Flags().GetInt64("goal-id")

			var opts []services.FlowOption
			if goal != "" || goalID != 0 {
				opts = append(opts, services.WithCarryOver(goal, goalID))
			}
			flow := a.flows.Start(opts...)
			defer a.flows.Abandon(flow.ID())

			w := &wizard{flow: flow, in: bufio.NewScanner(os.Stdin), out: os.Stdout}
			return w.run(ctx)
		}),
	}
	cmd.Flags().String("goal", "", "Goal text to start with")
	cmd.Flags().Int64("goal-id", 0, "Existing goal to attach the new tasks to")
	return cmd
}

// wizard 按行读取输入，驱动引导流程
type wizard struct {
	flow *services.Flow
	in   *bufio.Scanner
	out  io.Writer
}

func (w *wizard) println(a ...interface{}) {
	fmt.Fprintln(w.out, a...)
}

func (w *wizard) ask(prompt string) (string, bool) {
	fmt.Fprint(w.out, prompt)
	if !w.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(w.in.Text()), true
}

func (w *wizard) run(ctx context.Context) error {
	for {
		st := w.flow.Snapshot()
		var (
			err  error
			done bool
		)
		switch st.Step {
		case services.StepIntro:
			done, err = w.intro()
		case services.StepGoalInput:
			done, err = w.goalInput(ctx, st)
		case services.StepValidation:
			done, err = w.validation(ctx, st)
		case services.StepTasks:
			done, err = w.tasks(ctx, st)
		case services.StepReview:
			w.review(st)
			return nil
		}
		if done {
			return err
		}
		if err != nil {
			if services.IsSessionExpired(err) || errors.Is(err, services.ErrFlowClosed) || ctx.Err() != nil {
				return err
			}
			w.println(ui.Danger.Render(err.Error()))
		}
	}
}

func (w *wizard) intro() (bool, error) {
	w.println(ui.Title.Render("Let's turn a goal into a plan"))
	w.println(ui.Muted.Render("We'll check your goal against SMART criteria, suggest tasks, and schedule them."))
	if _, ok := w.ask("Press enter to start "); !ok {
		return true, nil
	}
	return false, w.flow.Proceed()
}

func (w *wizard) goalInput(ctx context.Context, st services.FlowState) (bool, error) {
	// :back 返回上一步，其余输入都当作目标文本
	prompt := "Your goal (:back to return): "
	if st.GoalText != "" {
		prompt = fmt.Sprintf("Your goal [%s] (:back to return): ", st.GoalText)
	}
	text, ok := w.ask(prompt)
	if !ok {
		return true, nil
	}
	if text == "" {
		text = st.GoalText
	}
	if text == ":back" {
		return false, w.flow.Back()
	}
	w.println(ui.Muted.Render("Validating..."))
	_, err := w.flow.ValidateGoal(ctx, text)
	return false, err
}

func (w *wizard) validation(ctx context.Context, st services.FlowState) (bool, error) {
	v := st.Validation
	if v.Fallback {
		w.println(ui.Warning.Render("AI validation is unavailable, showing a local check"))
	}
	d := v.ValidationDetails
	w.println(ui.SmartLine("Specific", d.Specific))
	w.println(ui.SmartLine("Measurable", d.Measurable))
	w.println(ui.SmartLine("Achievable", d.Achievable))
	w.println(ui.SmartLine("Relevant", d.Relevant))
	w.println(ui.SmartLine("Time-bound", d.TimeBound))
	if v.Feedback != "" {
		w.println(v.Feedback)
	}
	for _, s := range v.Suggestions {
		w.println(ui.Muted.Render("  - " + s))
	}
	for i, r := range v.RefinedVersions {
		w.println(fmt.Sprintf("  %d) %s", i+1, r.Goal))
	}

	cmd, ok := w.ask("[enter] suggest tasks, [e]dit, [number] use refined version: ")
	if !ok {
		return true, nil
	}
	switch cmd {
	case "":
		w.println(ui.Muted.Render("Generating tasks..."))
		_, err := w.flow.GenerateTasks(ctx)
		return false, err
	case "e", "edit", "back":
		return false, w.flow.EditGoal()
	}
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	if err := w.flow.ChooseRefinedVersion(n - 1); err != nil {
		return false, err
	}
	w.println(ui.Muted.Render("Using: " + w.flow.Snapshot().GoalText))
	return false, nil
}

func (w *wizard) tasks(ctx context.Context, st services.FlowState) (bool, error) {
	selected := make(map[string]bool, len(st.Selected))
	for _, id := range st.Selected {
		selected[id] = true
	}
	b := st.Batch
	w.println(ui.Title.Render(fmt.Sprintf("Suggested tasks (%.1fh total)", b.EstimatedTotalHours)))
	if b.SchedulingStrategy != "" {
		w.println(ui.Muted.Render(b.SchedulingStrategy))
	}
	for i, s := range b.Items {
		w.println(ui.SuggestionLine(i, s, selected[s.ID]))
	}

	cmd, ok := w.ask("[number] toggle, [a]ll, [n]one, [b]ack, [c]reate: ")
	if !ok {
		return true, nil
	}
	switch cmd {
	case "a":
		return false, w.flow.SelectAll()
	case "n":
		return false, w.flow.ClearSelection()
	case "b", "back":
		return false, w.flow.Back()
	case "c", "create":
		w.println(ui.Muted.Render("Creating tasks..."))
		_, err := w.flow.MaterializeTasks(ctx)
		if errors.Is(err, services.ErrNoSelection) {
			return false, errors.New("select at least one task")
		}
		return false, err
	}
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	id := b.IDAt(n - 1)
	if id == "" {
		return false, fmt.Errorf("no task #%d", n)
	}
	return false, w.flow.Toggle(id)
}

func (w *wizard) review(st services.FlowState) {
	o := st.Outcome
	w.println(ui.Success.Render(fmt.Sprintf("Created %d tasks", o.Created)))
	if o.Message != "" {
		w.println(o.Message)
	}
	if o.CalendarWarning {
		w.println(ui.Warning.Render("Tasks were created but could not be added to your calendar. Reconnect your calendar to schedule them."))
		for _, e := range o.SchedulingErrors {
			w.println(ui.Muted.Render("  - " + e))
		}
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "polylearner",
		Short:         "Goal planning client: goals, tasks, calendar and AI onboarding",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", ".", "Directory containing the .env config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(goalsCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(onboardCmd())
	rootCmd.AddCommand(coachCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	// analyze
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run pattern analysis and print the fresh insight set",
		RunE: func(cmd *cobra.Command, args []string) error {
			insights, err := api().RunAnalysis(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(insights)
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	// insights
	var history bool
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Show insights from the latest analysis run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history {
				all, err := api().InsightHistory(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(all)
			}
			latest, err := api().LatestInsights(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(latest)
		},
	}
	insightsCmd.Flags().BoolVar(&history, "history", false, "Show all persisted insights across runs")
	rootCmd.AddCommand(insightsCmd)

	// recommend
	var mood string
	recommendCmd := &cobra.Command{
		Use:   "recommend",
		Short: "Get ranked fragment recommendations for a mood",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mood == "" {
				return fmt.Errorf("--mood required")
			}
			matches, err := api().Recommend(cmd.Context(), mood)
			if err != nil {
				return err
			}
			return printJSON(matches)
		},
	}
	recommendCmd.Flags().StringVarP(&mood, "mood", "m", "", "Current mood (required)")
	_ = recommendCmd.MarkFlagRequired("mood")
	rootCmd.AddCommand(recommendCmd)

	// sessions
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List reflection sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := api().ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(sessions)
		},
	}
	rootCmd.AddCommand(sessionsCmd)

	// health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := api().Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(status)
		},
	}
	rootCmd.AddCommand(healthCmd)
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newscast",
		Short: "Fetch personalized news, summarize it, and generate anchor-script newscasts",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(newsCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(runCmd())
	root.AddCommand(usageCmd())
	root.AddCommand(addUserCmd())

	return root
}

func newsCmd() *cobra.Command {
	var (
		userID     int64
		query      string
		category   string
		region     string
		jsonOutput bool
		summarize  bool
	)

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Fetch personalized news entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNews(userID, query, category, region, jsonOutput, summarize)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user ID whose preferences drive the fetch")
	cmd.Flags().StringVar(&query, "query", "", "explicit search query (overrides preferences)")
	cmd.Flags().StringVar(&category, "category", "", "explicit category override")
	cmd.Flags().StringVar(&region, "region", "", "2-letter region code hint")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "batch-summarize the fetched articles")
	return cmd
}

func generateCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate newscast scripts for all users (or one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(userID)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "generate for this user only")
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon generating newscasts on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
	return cmd
}

func usageCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show model token usage per feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsage(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func addUserCmd() *cobra.Command {
	var (
		email    string
		category string
		region   string
		topics   []string
	)

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Register a user with news preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddUser(email, category, region, topics)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&category, "category", "", "preferred news category")
	cmd.Flags().StringVar(&region, "region", "", "preferred 2-letter region code")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "followed topics (repeatable)")
	cmd.MarkFlagRequired("email")
	return cmd
}

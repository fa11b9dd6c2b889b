package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"newscast/internal/config"
	"newscast/internal/newscast"
	"newscast/internal/scheduler"
	"newscast/internal/store"
	"newscast/pkg/ai"
	"newscast/pkg/news"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildSummarizer(cfg *config.Config, db store.Store) (*ai.Summarizer, *ai.Client) {
	tracker := ai.NewTracker(db)
	client := ai.NewClient(cfg.AI.Provider, cfg.AI.Model, cfg.AI.APIKey, cfg.AI.BaseURL, tracker)
	return ai.NewSummarizer(client), client
}

func buildGenerator(cfg *config.Config, db store.Store) *newscast.Generator {
	summarizer, client := buildSummarizer(cfg, db)
	return newscast.New(
		db,
		news.NewAggregator(),
		summarizer,
		newscast.ScriptRenderer{},
		newscast.NewNoopNotifier(),
		client.Model(),
		cfg.News.DefaultRegion,
		cfg.Newscast.OutputDir,
	)
}

func runNews(userID int64, query, category, region string, jsonOutput, summarize bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	var prefs *news.Preferences
	if userID > 0 {
		prefs, err = db.GetUserPreferences(ctx, userID)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
	}

	if region == "" {
		region = cfg.News.DefaultRegion
	}
	if region != "" && !news.KnownRegion(region) {
		return fmt.Errorf("unknown region code %q", region)
	}

	agg := news.NewAggregator()
	entries, err := agg.GetNews(ctx, prefs, news.QueryOpts{
		SearchQuery: query,
		Category:    category,
		Region:      region,
	})
	if err != nil {
		return fmt.Errorf("fetch news: %w", err)
	}

	summaries := map[string]string{}
	if summarize && len(entries) > 0 {
		summaries, err = summarizeEntries(ctx, cfg, db, userID, entries)
		if err != nil {
			if errors.Is(err, ai.ErrQuotaExceeded) {
				fmt.Fprintln(os.Stderr, "model quota exceeded; summaries temporarily unavailable, try again later")
			} else {
				return err
			}
		}
	}

	if jsonOutput {
		type entryWithSummary struct {
			news.Entry
			Summary string `json:"summary,omitempty"`
		}
		out := make([]entryWithSummary, len(entries))
		for i, e := range entries {
			out[i] = entryWithSummary{Entry: e, Summary: summaries[e.Link]}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Println("no news entries found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tPUBLISHED\tTITLE")
	for _, e := range entries {
		published := ""
		if !e.PublishedAt.IsZero() {
			published = e.PublishedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.SourceName, published, e.Title)
		if s, ok := summaries[e.Link]; ok {
			fmt.Fprintf(w, "\t\t%s\n", s)
		}
	}
	return w.Flush()
}

// summarizeEntries batch-summarizes the printable entries and realigns
// the results to entries by link.
func summarizeEntries(ctx context.Context, cfg *config.Config, db store.Store, userID int64, entries []news.Entry) (map[string]string, error) {
	summarizer, client := buildSummarizer(cfg, db)

	var texts []string
	var links []string
	for _, e := range entries {
		if e.SummaryHTML == "" {
			continue
		}
		text := news.ExtractText(e.SummaryHTML)
		if len(text) > 3000 {
			text = text[:3000]
		}
		texts = append(texts, text)
		links = append(links, e.Link)
	}

	summaries, usage, err := summarizer.SummarizeBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	if usage != nil {
		user := "anonymous"
		if userID > 0 {
			user = fmt.Sprintf("%d", userID)
		}
		_ = db.InsertTokenUsage(ctx, store.TokenUsage{
			ModelName:        client.Model(),
			UserID:           user,
			FeatureName:      "batch-summarization",
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		})
	}

	byLink := make(map[string]string, len(summaries))
	for i, link := range links {
		byLink[link] = summaries[i]
	}
	return byLink, nil
}

func runGenerate(userID int64) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	gen := buildGenerator(cfg, db)
	ctx := context.Background()

	if userID > 0 {
		users, err := db.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		for _, u := range users {
			if u.ID == userID {
				return gen.GenerateForUser(ctx, u)
			}
		}
		return fmt.Errorf("user %d not found", userID)
	}

	return gen.RunAll(ctx)
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gen := buildGenerator(cfg, db)
	sched := scheduler.New(gen, cfg.Newscast.ParseInterval())

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

func runUsage(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	usage, err := db.TokenUsageByFeature(context.Background())
	if err != nil {
		return fmt.Errorf("token usage: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(usage)
	}

	if len(usage) == 0 {
		fmt.Println("no token usage recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEATURE\tCALLS\tPROMPT\tCOMPLETION\tTOTAL")
	for _, u := range usage {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			u.FeatureName, u.Calls, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	}
	return w.Flush()
}

func runAddUser(email, category, region string, topics []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if category != "" && !news.KnownCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}
	if region != "" && !news.KnownRegion(region) {
		return fmt.Errorf("unknown region code %q", region)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	id, err := db.CreateUser(ctx, email)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if category != "" || region != "" {
		if err := db.SetPreferences(ctx, id, category, region); err != nil {
			return fmt.Errorf("set preferences: %w", err)
		}
	}
	if len(topics) > 0 {
		if err := db.SetTopics(ctx, id, topics); err != nil {
			return fmt.Errorf("set topics: %w", err)
		}
	}

	fmt.Printf("created user %d (%s)\n", id, email)
	return nil
}

// Package newscast orchestrates per-user newscast generation: fetch
// personalized news, summarize it in one batched model call, rewrite the
// summaries as an anchor script, and hand the script to the configured
// renderer and notifier.
package newscast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"newscast/internal/store"
	"newscast/pkg/ai"
	"newscast/pkg/news"
)

// maxArticleChars caps how much of each article body is submitted for
// summarization.
const maxArticleChars = 3000

// NewsSource fetches personalized article entries.
type NewsSource interface {
	GetNews(ctx context.Context, prefs *news.Preferences, opts news.QueryOpts) ([]news.Entry, error)
}

// SummaryService is the slice of the AI layer the generator needs.
type SummaryService interface {
	SummarizeBatch(ctx context.Context, texts []string) ([]string, *ai.Usage, error)
	RephraseAsAnchor(ctx context.Context, text string) (string, *ai.Usage, error)
}

// Renderer turns an anchor script into a deliverable media artifact and
// returns its path. Audio/video encoding is an external capability; the
// in-tree implementation writes the script itself.
type Renderer interface {
	Render(ctx context.Context, script, basePath string) (string, error)
}

// Notifier delivers a rendered newscast to its recipient.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, user store.User, mediaPath string) error
}

// Generator runs the newscast pipeline for users.
type Generator struct {
	store     store.Store
	source    NewsSource
	summarize SummaryService
	renderer  Renderer
	notifier  Notifier
	modelName string
	region    string // default region hint when the user has none
	outputDir string
	log       *slog.Logger
}

// New creates a generator. Renderer and notifier must be non-nil; use
// NewNoopNotifier when no delivery is wanted.
func New(
	s store.Store,
	source NewsSource,
	summarize SummaryService,
	renderer Renderer,
	notifier Notifier,
	modelName, region, outputDir string,
) *Generator {
	return &Generator{
		store:     s,
		source:    source,
		summarize: summarize,
		renderer:  renderer,
		notifier:  notifier,
		modelName: modelName,
		region:    region,
		outputDir: outputDir,
		log:       slog.Default(),
	}
}

// RunAll generates a newscast for every registered user. Per-user
// failures (including quota exhaustion) are logged and do not stop the
// run; only the user listing itself can fail the whole run.
func (g *Generator) RunAll(ctx context.Context) error {
	users, err := g.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	g.log.Info("starting newscast generation", "users", len(users))
	for _, user := range users {
		if err := g.GenerateForUser(ctx, user); err != nil {
			g.log.Error("newscast generation failed", "user", user.Email, "error", err)
		}
	}
	return nil
}

// GenerateForUser runs the full pipeline for one user. Quota exhaustion
// is returned as ErrQuotaExceeded so the caller can distinguish it; a
// user with no usable news content is skipped without error.
func (g *Generator) GenerateForUser(ctx context.Context, user store.User) error {
	prefs, err := g.store.GetUserPreferences(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	entries, err := g.source.GetNews(ctx, prefs, news.QueryOpts{Region: g.region})
	if err != nil {
		return fmt.Errorf("fetch news: %w", err)
	}
	if len(entries) == 0 {
		g.log.Warn("no news entries fetched, skipping user", "user", user.Email)
		return nil
	}

	userID := strconv.FormatInt(user.ID, 10)
	summaryByLink, err := g.summarizeEntries(ctx, userID, entries)
	if err != nil {
		return err
	}
	if len(summaryByLink) == 0 {
		g.log.Warn("no article content found to summarize", "user", user.Email)
		return nil
	}

	// Reassemble in entry order; links are the stable keys.
	var summaries []string
	for _, e := range entries {
		if s, ok := summaryByLink[e.Link]; ok {
			summaries = append(summaries, s)
		}
	}

	script, usage, err := g.summarize.RephraseAsAnchor(ctx, strings.Join(summaries, " "))
	if err != nil {
		// Only quota exhaustion reaches here; transient failures already
		// degraded to the fixed fallback script inside the AI layer.
		return fmt.Errorf("anchor script: %w", err)
	}
	g.logTokenUsage(ctx, userID, "newscast-rephrasing", usage)

	base := fmt.Sprintf("%s/newscast_%s_%s", g.outputDir, userID, time.Now().UTC().Format("2006-01-02"))
	mediaPath, err := g.renderer.Render(ctx, script, base)
	if err != nil {
		return fmt.Errorf("render newscast: %w", err)
	}

	if err := g.notifier.Notify(ctx, user, mediaPath); err != nil {
		return fmt.Errorf("deliver via %s: %w", g.notifier.Name(), err)
	}

	g.log.Info("newscast generated", "user", user.Email, "path", mediaPath)
	return nil
}

// summarizeEntries batches the plain text of all entries that carry a
// summary into one model call and returns summaries keyed by entry link.
func (g *Generator) summarizeEntries(ctx context.Context, userID string, entries []news.Entry) (map[string]string, error) {
	var texts []string
	var links []string
	for _, e := range entries {
		if e.SummaryHTML == "" {
			continue
		}
		text := news.ExtractText(e.SummaryHTML)
		if len(text) > maxArticleChars {
			text = text[:maxArticleChars]
		}
		texts = append(texts, text)
		links = append(links, e.Link)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	summaries, usage, err := g.summarize.SummarizeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch summarization: %w", err)
	}
	g.logTokenUsage(ctx, userID, "newscast-summarization", usage)

	byLink := make(map[string]string, len(summaries))
	for i, link := range links {
		byLink[link] = summaries[i]
	}
	return byLink, nil
}

// logTokenUsage persists token accounting for one model call. Storage
// failures must never fail the pipeline, so they are logged and dropped.
func (g *Generator) logTokenUsage(ctx context.Context, userID, feature string, usage *ai.Usage) {
	if usage == nil {
		return
	}
	err := g.store.InsertTokenUsage(ctx, store.TokenUsage{
		ModelName:        g.modelName,
		UserID:           userID,
		FeatureName:      feature,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	})
	if err != nil {
		g.log.Error("token usage logging failed", "feature", feature, "error", err)
	}
}

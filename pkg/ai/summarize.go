package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const (
	summarizeTemperature = 0.3
	anchorTemperature    = 0.7

	// fallbackLimit is the truncation length used when the model is
	// unavailable and a deterministic summary must be produced instead.
	fallbackLimit = 150

	// AnchorFallback is returned when anchor-script generation fails for
	// any reason other than quota exhaustion.
	AnchorFallback = "Could not generate the news anchor script at this time."
)

// summaryMarker matches the per-article markers the batch prompt instructs
// the model to emit. The numeric index is matched but never used for
// ordering; only marker presence and count matter.
var summaryMarker = regexp.MustCompile(`(?i)SUMMARY\s*\d+:`)

// Summarizer turns article text into summaries and anchor scripts through
// a model client. All transient failures degrade to deterministic
// fallbacks; only ErrQuotaExceeded is surfaced to callers.
type Summarizer struct {
	llm Invoker
	log *slog.Logger
}

// Invoker is the single model call the summarizer depends on.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, temperature float64) (*Completion, error)
}

// NewSummarizer creates a summarizer on top of a model client.
func NewSummarizer(llm Invoker) *Summarizer {
	return &Summarizer{llm: llm, log: slog.Default()}
}

// SummarizeBatch summarizes all texts in a single model call and returns
// exactly len(texts) summaries. The whole batch degrades to per-article
// truncation when the call fails or the response cannot be validated;
// ErrQuotaExceeded propagates with no fallback. Usage is nil on every
// fallback path.
func (s *Summarizer) SummarizeBatch(ctx context.Context, texts []string) ([]string, *Usage, error) {
	if len(texts) == 0 {
		return []string{}, nil, nil
	}

	comp, err := s.llm.Invoke(ctx, buildBatchPrompt(texts), summarizeTemperature)
	if err != nil {
		if isQuota(err) {
			return nil, nil, err
		}
		s.log.Warn("batch summarization failed, truncating each article", "error", err)
		return truncateAll(texts), nil, nil
	}

	summaries, err := splitSummaries(comp.Text, len(texts))
	if err != nil {
		s.log.Warn("batch summary response rejected, truncating each article", "error", err)
		return truncateAll(texts), nil, nil
	}
	return summaries, &comp.Usage, nil
}

// SummarizeText summarizes a single piece of text, falling back to
// truncation on transient failure.
func (s *Summarizer) SummarizeText(ctx context.Context, text string) (string, *Usage, error) {
	prompt := "You are an expert news summarizer. Summarize the following text concisely in no more than 100 words:\n\n" + text

	comp, err := s.llm.Invoke(ctx, prompt, summarizeTemperature)
	if err != nil {
		if isQuota(err) {
			return "", nil, err
		}
		s.log.Warn("summarization failed, truncating text", "error", err)
		return truncateFallback(text), nil, nil
	}
	return comp.Text, &comp.Usage, nil
}

// RephraseAsAnchor rewrites text into a broadcast-style news script at a
// higher temperature than summarization. Transient failures return
// AnchorFallback with nil usage; quota exhaustion propagates.
func (s *Summarizer) RephraseAsAnchor(ctx context.Context, text string) (string, *Usage, error) {
	prompt := "You are a professional news anchor. Rewrite the following text into a cohesive, flowing news script that you would read on air. Make it engaging and professional:\n\n" + text

	comp, err := s.llm.Invoke(ctx, prompt, anchorTemperature)
	if err != nil {
		if isQuota(err) {
			return "", nil, err
		}
		s.log.Warn("anchor rephrasing failed, using fixed fallback", "error", err)
		return AnchorFallback, nil, nil
	}
	return comp.Text, &comp.Usage, nil
}

// buildBatchPrompt packs all articles into one prompt with numbered
// sections and explicit output-format instructions.
func buildBatchPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("You are an expert news summarizer. I will provide a list of articles. For each article, provide a concise and clear summary of no more than 100 words.\n")
	b.WriteString("Present the output as a numbered list. Each summary must start with 'SUMMARY <number>:' on a new line, where <number> is the article number.\n")
	b.WriteString("For example:\nSUMMARY 1:\n<summary for article 1>\n\nSUMMARY 2:\n<summary for article 2>\n")
	b.WriteString("\nHere are the articles:\n\n")
	for i, text := range texts {
		fmt.Fprintf(&b, "ARTICLE %d:\n%s\n\n", i+1, text)
	}
	return b.String()
}

// splitSummaries parses a batch response into individual summaries. The
// response must contain exactly want markers; any deviation rejects the
// whole batch. Text before the first marker is discarded.
func splitSummaries(response string, want int) ([]string, error) {
	parts := summaryMarker.Split(strings.TrimSpace(response), -1)
	if len(parts) < 2 {
		return nil, fmt.Errorf("no summary markers found in response")
	}

	summaries := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		summaries = append(summaries, strings.TrimSpace(p))
	}

	if len(summaries) != want {
		return nil, fmt.Errorf("expected %d summaries, parsed %d", want, len(summaries))
	}
	return summaries, nil
}

func truncateAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = truncateFallback(text)
	}
	return out
}

func truncateFallback(text string) string {
	if len(text) <= fallbackLimit {
		return text
	}
	return text[:fallbackLimit] + "..."
}

func isQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

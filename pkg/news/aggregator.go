package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one article from a feed. Link is the stable key callers use to
// realign derived data (such as summaries) to entries.
type Entry struct {
	Link        string    `json:"link"`
	Title       string    `json:"title"`
	SummaryHTML string    `json:"summary_html"`
	SourceName  string    `json:"source_name,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Preferences is a user's stored news preference state.
type Preferences struct {
	PreferredCategory string
	Topics            []string
	PreferredRegion   string
}

// QueryOpts carries per-request overrides. Region is a caller-resolved
// hint (typically IP-derived); a preference region takes precedence.
type QueryOpts struct {
	SearchQuery string
	Category    string
	Region      string
}

// Aggregator fetches personalized news from Google News feeds.
type Aggregator struct {
	client *http.Client
	parser *gofeed.Parser
	log    *slog.Logger
}

// NewAggregator creates an aggregator with its own HTTP client.
func NewAggregator() *Aggregator {
	return NewAggregatorWithClient(&http.Client{Timeout: 30 * time.Second})
}

// NewAggregatorWithClient creates an aggregator over a caller-supplied
// HTTP client (custom transports, test doubles).
func NewAggregatorWithClient(client *http.Client) *Aggregator {
	return &Aggregator{
		client: client,
		parser: gofeed.NewParser(),
		log:    slog.Default(),
	}
}

// GetNews returns ordered article entries for the given preference state
// and request overrides. Priority: explicit search, then explicit
// category, then the preference blend, then the default Top Stories feed.
// Individual feed failures yield zero entries from that feed and never
// abort the aggregation.
func (a *Aggregator) GetNews(ctx context.Context, prefs *Preferences, opts QueryOpts) ([]Entry, error) {
	region := opts.Region
	if prefs != nil && prefs.PreferredRegion != "" {
		region = prefs.PreferredRegion
	}

	if opts.SearchQuery != "" {
		a.log.Info("fetching news search", "query", opts.SearchQuery, "region", region)
		return a.fetchEntries(ctx, qualifyRegion(searchFeedURL(opts.SearchQuery), region), 10), nil
	}

	if opts.Category != "" && KnownCategory(opts.Category) {
		a.log.Info("fetching category feed", "category", opts.Category, "region", region)
		return a.fetchEntries(ctx, qualifyRegion(CategoryFeeds[opts.Category], region), 10), nil
	}

	var entries []Entry
	if prefs != nil {
		hasCategory := KnownCategory(prefs.PreferredCategory)
		hasTopics := len(prefs.Topics) > 0

		categoryLimit, topicLimit := 0, 0
		switch {
		case hasCategory && hasTopics:
			categoryLimit, topicLimit = 5, 5
		case hasCategory:
			categoryLimit = 10
		case hasTopics:
			topicLimit = 10
		}

		if categoryLimit > 0 {
			feedURL := qualifyRegion(CategoryFeeds[prefs.PreferredCategory], region)
			a.log.Info("fetching preferred category", "category", prefs.PreferredCategory, "limit", categoryLimit)
			entries = append(entries, a.fetchEntries(ctx, feedURL, categoryLimit)...)
		}
		if topicLimit > 0 {
			feedURL := qualifyRegion(searchFeedURL(strings.Join(prefs.Topics, " OR ")), region)
			a.log.Info("fetching followed topics", "topics", len(prefs.Topics), "limit", topicLimit)
			entries = append(entries, a.fetchEntries(ctx, feedURL, topicLimit)...)
		}
	}

	if len(entries) == 0 {
		a.log.Info("no preference results, falling back to default feed", "region", region)
		entries = a.fetchEntries(ctx, qualifyRegion(CategoryFeeds[TopStories], region), 10)
	}
	return entries, nil
}

// fetchEntries fetches and parses one feed, returning at most limit
// entries. All failures are logged and reported as zero entries.
func (a *Aggregator) fetchEntries(ctx context.Context, feedURL string, limit int) []Entry {
	feed, err := a.fetchFeed(ctx, feedURL)
	if err != nil {
		a.log.Warn("feed fetch failed", "url", feedURL, "error", err)
		return nil
	}

	items := feed.Items
	if len(items) > limit {
		items = items[:limit]
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, entryFromItem(item))
	}
	a.log.Info("parsed feed", "url", feedURL, "entries", len(entries))
	return entries
}

func (a *Aggregator) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", "newscast/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	feed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func entryFromItem(item *gofeed.Item) Entry {
	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}

	published := time.Time{}
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	title, source := splitSourceSuffix(item.Title)

	return Entry{
		Link:        link,
		Title:       title,
		SummaryHTML: item.Description,
		SourceName:  source,
		LogoURL:     faviconURL(link),
		PublishedAt: published,
	}
}

// splitSourceSuffix strips the publisher name Google News appends to
// titles ("Headline - Publisher") and returns both pieces.
func splitSourceSuffix(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+len(" - "):])
}

// faviconURL builds a publisher logo URL from the article link's
// hostname, using Google's favicon service.
func faviconURL(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "https://www.google.com/s2/favicons?domain=" + u.Hostname() + "&sz=64"
}

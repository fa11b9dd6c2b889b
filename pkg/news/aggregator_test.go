package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routeFunc serves canned responses keyed by request URL, recording every
// fetched URL.
type routeFunc struct {
	urls    []string
	handler func(url string) (int, string)
}

func (r *routeFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	r.urls = append(r.urls, url)
	code, body := r.handler(url)
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func rssFeed(prefix string, n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>test feed</title>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b,
			`<item><title>%s item %d - Example Press</title><link>https://example.com/%s/%d</link><description>&lt;p&gt;body %d&lt;/p&gt;</description><pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate></item>`,
			prefix, i, prefix, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func newTestAggregator(handler func(url string) (int, string)) (*Aggregator, *routeFunc) {
	rt := &routeFunc{handler: handler}
	return NewAggregatorWithClient(&http.Client{Transport: rt}), rt
}

func TestGetNewsSearchOverridesEverything(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("search", 15)
	})

	prefs := &Preferences{PreferredCategory: "Technology", Topics: []string{"space"}, PreferredRegion: "IN"}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{SearchQuery: "golang", Region: "US"})
	require.NoError(t, err)

	require.Len(t, rt.urls, 1, "search must be the only fetch")
	assert.Contains(t, rt.urls[0], "search?q=golang")
	assert.Contains(t, rt.urls[0], "gl=IN", "preference region beats the caller-resolved region")
	assert.Len(t, entries, 10, "search results are capped at 10")
}

func TestGetNewsCategoryOverride(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("tech", 3)
	})

	entries, err := agg.GetNews(context.Background(), nil, QueryOpts{Category: "Technology", Region: "GB"})
	require.NoError(t, err)

	require.Len(t, rt.urls, 1)
	assert.Contains(t, rt.urls[0], "section/topic/TECHNOLOGY")
	assert.Contains(t, rt.urls[0], "gl=GB&hl=en")
	assert.Len(t, entries, 3)
}

func TestGetNewsUnknownCategoryFallsThrough(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("top", 2)
	})

	entries, err := agg.GetNews(context.Background(), nil, QueryOpts{Category: "Nonsense"})
	require.NoError(t, err)

	// Unknown category is ignored; the default feed serves the request.
	require.Len(t, rt.urls, 1)
	assert.Equal(t, CategoryFeeds[TopStories], rt.urls[0])
	assert.Len(t, entries, 2)
}

func TestGetNewsBlendSplitsEvenly(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		if strings.Contains(url, "search?q=") {
			return http.StatusOK, rssFeed("topic", 9)
		}
		return http.StatusOK, rssFeed("cat", 8)
	})

	prefs := &Preferences{PreferredCategory: "Sports", Topics: []string{"cricket", "tennis"}}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{})
	require.NoError(t, err)

	require.Len(t, rt.urls, 2)
	assert.Contains(t, rt.urls[0], "section/topic/SPORTS")
	assert.Contains(t, rt.urls[1], "q=cricket+OR+tennis")

	require.Len(t, entries, 10)
	for _, e := range entries[:5] {
		assert.Contains(t, e.Link, "/cat/", "category results come first")
	}
	for _, e := range entries[5:] {
		assert.Contains(t, e.Link, "/topic/")
	}
}

func TestGetNewsBlendWithShortFeeds(t *testing.T) {
	agg, _ := newTestAggregator(func(url string) (int, string) {
		if strings.Contains(url, "search?q=") {
			return http.StatusOK, rssFeed("topic", 2)
		}
		return http.StatusOK, rssFeed("cat", 3)
	})

	prefs := &Preferences{PreferredCategory: "World", Topics: []string{"energy"}}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, entries, 5, "short upstream feeds yield fewer entries, never an error")
}

func TestGetNewsCategoryOnlyFetchesTen(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("cat", 12)
	})

	prefs := &Preferences{PreferredCategory: "Business"}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{})
	require.NoError(t, err)

	require.Len(t, rt.urls, 1)
	assert.Len(t, entries, 10)
}

func TestGetNewsTopicsOnlyFetchesTen(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("topic", 11)
	})

	prefs := &Preferences{Topics: []string{"chess"}}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{})
	require.NoError(t, err)

	require.Len(t, rt.urls, 1)
	assert.Contains(t, rt.urls[0], "q=chess")
	assert.Len(t, entries, 10)
}

func TestGetNewsNoPreferencesUsesDefaultFeed(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("top", 4)
	})

	entries, err := agg.GetNews(context.Background(), &Preferences{}, QueryOpts{Region: "CA"})
	require.NoError(t, err)

	require.Len(t, rt.urls, 1)
	assert.Equal(t, CategoryFeeds[TopStories]+"?gl=CA&hl=en", rt.urls[0])
	assert.Len(t, entries, 4)
}

func TestGetNewsEmptyBlendFallsBackToDefault(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		if strings.Contains(url, "section/topic/WORLD") {
			return http.StatusInternalServerError, ""
		}
		return http.StatusOK, rssFeed("top", 6)
	})

	prefs := &Preferences{PreferredCategory: "World"}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{})
	require.NoError(t, err)

	require.Len(t, rt.urls, 2, "failed category fetch triggers the default fallback")
	assert.Len(t, entries, 6)
}

func TestGetNewsTotalFailureReturnsEmptyNotError(t *testing.T) {
	agg, _ := newTestAggregator(func(url string) (int, string) {
		return http.StatusServiceUnavailable, ""
	})

	entries, err := agg.GetNews(context.Background(), nil, QueryOpts{})
	require.NoError(t, err, "feed failures are swallowed, never raised")
	assert.Empty(t, entries)
}

func TestGetNewsMalformedFeedIsSwallowed(t *testing.T) {
	agg, rt := newTestAggregator(func(url string) (int, string) {
		if strings.Contains(url, "search?q=") {
			return http.StatusOK, "this is not XML at all"
		}
		return http.StatusOK, rssFeed("cat", 2)
	})

	prefs := &Preferences{PreferredCategory: "AI", Topics: []string{"robots"}}
	entries, err := agg.GetNews(context.Background(), prefs, QueryOpts{})
	require.NoError(t, err)

	require.Len(t, rt.urls, 2)
	assert.Len(t, entries, 2, "malformed topic feed yields zero entries, category results survive")
}

func TestEntryFieldsFromFeedItem(t *testing.T) {
	agg, _ := newTestAggregator(func(url string) (int, string) {
		return http.StatusOK, rssFeed("top", 1)
	})

	entries, err := agg.GetNews(context.Background(), nil, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "https://example.com/top/1", e.Link)
	assert.Equal(t, "top item 1", e.Title, "publisher suffix is stripped from the title")
	assert.Equal(t, "Example Press", e.SourceName)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=example.com&sz=64", e.LogoURL)
	assert.Contains(t, e.SummaryHTML, "body 1")
	assert.False(t, e.PublishedAt.IsZero())
}

func TestSplitSourceSuffix(t *testing.T) {
	tests := []struct {
		title      string
		wantTitle  string
		wantSource string
	}{
		{"Headline - CNN", "Headline", "CNN"},
		{"Multi - part - BBC News", "Multi - part", "BBC News"},
		{"No suffix here", "No suffix here", ""},
		{"", "", ""},
	}
	for _, tc := range tests {
		title, source := splitSourceSuffix(tc.title)
		assert.Equal(t, tc.wantTitle, title)
		assert.Equal(t, tc.wantSource, source)
	}
}

func TestFaviconURL(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/s2/favicons?domain=news.example.org&sz=64",
		faviconURL("https://news.example.org/path/to/article"))
	assert.Empty(t, faviconURL(""))
	assert.Empty(t, faviconURL("not a url"))
}

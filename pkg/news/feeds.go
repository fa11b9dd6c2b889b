package news

import (
	"net/url"
	"strings"
)

// TopStories is the default feed used when no preference applies.
const TopStories = "Top Stories"

// CategoryFeeds maps known category names to their Google News RSS URLs.
// Curated sections use topic feeds; the rest are canned searches.
var CategoryFeeds = map[string]string{
	"Top Stories":            "https://news.google.com/rss",
	"World":                  "https://news.google.com/rss/headlines/section/topic/WORLD",
	"Business":               "https://news.google.com/rss/headlines/section/topic/BUSINESS",
	"Technology":             "https://news.google.com/rss/headlines/section/topic/TECHNOLOGY",
	"Sports":                 "https://news.google.com/rss/headlines/section/topic/SPORTS",
	"Fashion":                "https://news.google.com/rss/search?q=fashion",
	"AI":                     "https://news.google.com/rss/search?q=AI",
	"Defence":                "https://news.google.com/rss/search?q=defence",
	"Information Technology": "https://news.google.com/rss/search?q=information%20technology",
	"Weather":                "https://news.google.com/rss/search?q=weather",
}

// Region is a selectable news edition.
type Region struct {
	Name string
	Code string
}

// Regions groups selectable regions by continent.
var Regions = map[string][]Region{
	"Asia":          {{"India", "IN"}, {"China", "CN"}, {"Japan", "JP"}, {"South Korea", "KR"}},
	"Africa":        {{"South Africa", "ZA"}},
	"Middle East":   {{"Saudi Arabia", "SA"}, {"UAE", "AE"}, {"Iran", "IR"}, {"Iraq", "IQ"}, {"Israel", "IL"}},
	"Europe":        {{"European Union", "EU"}, {"France", "FR"}, {"Germany", "DE"}, {"Italy", "IT"}, {"Russia", "RU"}, {"Spain", "ES"}, {"UK", "GB"}},
	"North America": {{"USA", "US"}, {"Canada", "CA"}, {"Mexico", "MX"}},
	"South America": {{"Argentina", "AR"}, {"Brazil", "BR"}, {"Chile", "CL"}, {"Colombia", "CO"}},
	"Oceania":       {{"Australia", "AU"}, {"New Zealand", "NZ"}, {"Singapore", "SG"}},
}

// KnownCategory reports whether name is a configured category.
func KnownCategory(name string) bool {
	_, ok := CategoryFeeds[name]
	return ok
}

// KnownRegion reports whether code is a selectable region code.
func KnownRegion(code string) bool {
	for _, regions := range Regions {
		for _, r := range regions {
			if r.Code == code {
				return true
			}
		}
	}
	return false
}

// searchFeedURL builds a Google News search feed for an arbitrary query.
func searchFeedURL(query string) string {
	return "https://news.google.com/rss/search?q=" + url.QueryEscape(query)
}

// qualifyRegion appends the region and language parameters that localize
// a Google News feed. An empty region leaves the URL unqualified
// (provider default edition).
func qualifyRegion(feedURL, region string) string {
	if region == "" {
		return feedURL
	}
	sep := "?"
	if strings.Contains(feedURL, "?") {
		sep = "&"
	}
	return feedURL + sep + "gl=" + region + "&hl=en"
}

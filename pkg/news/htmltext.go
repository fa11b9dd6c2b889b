package news

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText strips markup from an HTML fragment (such as a feed item's
// summary) and returns the plain text. A fragment that cannot be parsed
// is returned as-is.
func ExtractText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

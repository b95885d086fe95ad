// Package extract pulls anchors and titles out of HTML bodies. Both
// functions are pure over the document text.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTitle is used when a document carries no <title> element.
const DefaultTitle = "Untitled Page"

// Anchors returns the raw href values of all anchor elements, in
// document order, de-duplicated. A limit > 0 caps the result length.
// Unparseable HTML yields no anchors rather than an error; browsers
// are just as forgiving.
func Anchors(body []byte, limit int) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var hrefs []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		if _, dup := seen[href]; dup {
			return true
		}
		seen[href] = struct{}{}
		hrefs = append(hrefs, href)
		return limit <= 0 || len(hrefs) < limit
	})
	return hrefs
}

// Title returns the document title, or DefaultTitle when absent.
func Title(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return DefaultTitle
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return DefaultTitle
	}
	return strings.Join(strings.Fields(title), " ")
}

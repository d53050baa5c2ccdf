package links

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor scans article content for Amazon short links on a fixed host.
type Extractor struct {
	host string
	re   *regexp.Regexp
}

// NewExtractor builds an Extractor for the given short-link host
// (e.g. "amzn.eu").
func NewExtractor(shortHost string) *Extractor {
	return &Extractor{
		host: shortHost,
		re:   regexp.MustCompile(`https://` + regexp.QuoteMeta(shortHost) + `/\S+`),
	}
}

// Extract returns the distinct short links found in content, normalized and in
// first-occurrence order. Content may be plain text or HTML; anchor hrefs are
// scanned too so links survive markup without trailing attribute junk.
// No matches is not an error: the result is simply empty.
func (e *Extractor) Extract(content string) []string {
	if content == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		link := Normalize(raw)
		if link == "" {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}

	for _, m := range e.re.FindAllString(content, -1) {
		add(m)
	}

	// A second pass over anchor hrefs catches links that the regex mangled
	// with markup (href="..." runs are non-whitespace). goquery decodes
	// entities for us.
	if strings.Contains(content, "<a") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
			prefix := "https://" + e.host + "/"
			doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
				href := strings.TrimSpace(s.AttrOr("href", ""))
				if strings.HasPrefix(href, prefix) {
					add(href)
				}
			})
		}
	}
	return out
}

var markupArtifactRe = regexp.MustCompile(`">.*$`)

// Normalize strips trailing HTML artifacts picked up by non-whitespace
// matching (a '">' and everything after it) and decodes HTML entities.
func Normalize(link string) string {
	link = markupArtifactRe.ReplaceAllString(link, "")
	link = html.UnescapeString(link)
	return strings.TrimSpace(link)
}

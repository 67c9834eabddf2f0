package discovery

import (
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
)

// ExtractLinks returns the first capture group of every match of pattern in
// text, in document order. Matches whose full text matches skip are dropped.
func ExtractLinks(text string, pattern, skip *regexp.Regexp) []string {
	var links []string
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		if skip != nil && skip.MatchString(m[0]) {
			continue
		}
		if link := trimLink(m[1]); link != "" {
			links = append(links, link)
		}
	}
	return links
}

// trimLink strips attribute quoting from an unquoted capture such as
// `"https://x/a/">`.
func trimLink(s string) string {
	s = strings.TrimLeft(s, `"'`)
	if i := strings.IndexAny(s, `"'>`); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// FeedLinks parses text as an RSS, Atom or JSON feed and returns each item's
// link.
func FeedLinks(text string) ([]string, error) {
	feed, err := gofeed.NewParser().ParseString(text)
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse feed")
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}
		if link = strings.TrimSpace(link); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

package discovery

import "strings"

// Filter rewrites site-relative recipe links to absolute URLs and drops links
// known not to be single recipes.
type Filter struct {
	// Prefix is the site-relative path prefix that gets Domain prepended.
	Prefix string
	Domain string
	// Rules lists groups of substrings. A link is excluded when every
	// substring of any one group appears in it, ignoring case.
	Rules [][]string
}

// DefaultFilter returns the filter used for the built-in sources: meal plans,
// round-ups, guides, promotions and eggplant pages are excluded.
func DefaultFilter() Filter {
	return Filter{
		Prefix: "/recipes/",
		Domain: "https://www.leanandgreenrecipes.net",
		Rules: [][]string{
			{"plan"},
			{"eggplant"},
			{"dishes", "/recipes/"},
			{"dishes", "best"},
			{"black", "friday"},
			{"how", "use"},
			{"dishes"},
			{"ideas"},
			{"30-whole30-meals-in-30-minutes"},
			{"guide"},
		},
	}
}

// Normalize returns link in absolute form.
func (f Filter) Normalize(link string) string {
	link = strings.TrimSpace(link)
	if f.Prefix != "" && len(link) >= len(f.Prefix) && strings.EqualFold(link[:len(f.Prefix)], f.Prefix) {
		return f.Domain + link
	}
	return link
}

// Excluded reports whether any rule matches link.
func (f Filter) Excluded(link string) bool {
	lower := strings.ToLower(link)
	for _, rule := range f.Rules {
		if len(rule) == 0 {
			continue
		}
		matched := true
		for _, keyword := range rule {
			if !strings.Contains(lower, strings.ToLower(keyword)) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// Clean normalizes links in place and removes excluded, empty and duplicate
// entries. It reuses the backing array of links and returns the surviving
// prefix; exclusion is judged on the normalized form.
func (f Filter) Clean(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	kept := links[:0]
	for _, link := range links {
		link = f.Normalize(link)
		if link == "" || f.Excluded(link) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		kept = append(kept, link)
	}
	clear(links[len(kept):])
	return kept
}

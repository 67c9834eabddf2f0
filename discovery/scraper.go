package discovery

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/weeklymeals/recipe"
	"github.com/rotisserie/eris"
)

// Parser extracts recipe fields from a recipe page.
type Parser interface {
	Parse(page, pageURL string) (*recipe.Raw, error)
}

// ErrNoRecipe is returned when a page carries no schema.org Recipe data.
var ErrNoRecipe = eris.New("no schema.org Recipe found on page")

// SchemaParser reads the schema.org Recipe object that recipe sites embed as
// JSON-LD, falling back to OpenGraph meta tags for title, image and site
// name.
type SchemaParser struct{}

// Parse implements Parser.
func (SchemaParser) Parse(page, pageURL string) (*recipe.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse HTML")
	}

	var nodes []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return
		}
		nodes = append(nodes, flattenNodes(v)...)
	})

	var node map[string]any
	for _, n := range nodes {
		if hasType(n, "Recipe") {
			node = n
			break
		}
	}
	if node == nil {
		return nil, ErrNoRecipe
	}

	raw := &recipe.Raw{CanonicalURL: pageURL}
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		raw.CanonicalURL = strings.TrimSpace(href)
	}

	raw.Title = firstNonEmpty(stringValue(node["name"]), metaContent(doc, "og:title"))
	raw.SiteName = firstNonEmpty(metaContent(doc, "og:site_name"), siteName(nodes))
	if host := recipe.Host(pageURL); host != "" {
		raw.Host = &host
	}

	if ingredients, ok := stringList(node["recipeIngredient"]); ok {
		raw.Ingredients = ingredients
	} else if ingredients, ok := stringList(node["ingredients"]); ok {
		raw.Ingredients = ingredients
	}

	if v, ok := node["recipeInstructions"]; ok {
		steps := instructionSteps(v)
		text := strings.Join(steps, "\n")
		raw.Instructions = &text
	}

	raw.Image = firstNonEmpty(imageURL(node["image"]), metaContent(doc, "og:image"))
	raw.Yields = yields(node["recipeYield"])

	if minutes, ok := durationMinutes(stringValue(node["totalTime"])); ok {
		raw.TotalTime = minutes
	} else {
		prep, _ := durationMinutes(stringValue(node["prepTime"]))
		cook, _ := durationMinutes(stringValue(node["cookTime"]))
		raw.TotalTime = prep + cook
	}

	if category, ok := stringList(node["recipeCategory"]); ok && len(category) > 0 {
		raw.Category = category[0]
	}

	return raw, nil
}

// flattenNodes expands arrays and @graph containers into a flat list of
// JSON-LD objects.
func flattenNodes(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range t {
			out = append(out, flattenNodes(item)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{t}
		if graph, ok := t["@graph"]; ok {
			out = append(out, flattenNodes(graph)...)
		}
		return out
	}
	return nil
}

// hasType reports whether a node's @type is, or contains, want.
func hasType(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func siteName(nodes []map[string]any) string {
	for _, n := range nodes {
		if hasType(n, "WebSite") || hasType(n, "Organization") {
			if name := stringValue(n["name"]); name != "" {
				return name
			}
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)).First()
	content, _ := sel.Attr("content")
	return clean(content)
}

// stringValue returns v as cleaned text when it is a string or number.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return clean(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// stringList accepts a JSON string or array of strings. The boolean is false
// when the key was absent or of another type.
func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		if s := clean(t); s != "" {
			return []string{s}, true
		}
		return []string{}, true
	case []any:
		out := []string{}
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// instructionSteps flattens recipeInstructions, which may be plain text,
// a list of strings, HowToStep objects or HowToSection groups.
func instructionSteps(v any) []string {
	switch t := v.(type) {
	case string:
		if s := clean(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, instructionSteps(item)...)
		}
		return out
	case map[string]any:
		if hasType(t, "HowToSection") {
			return instructionSteps(t["itemListElement"])
		}
		if text := stringValue(t["text"]); text != "" {
			return []string{text}
		}
		if name := stringValue(t["name"]); name != "" {
			return []string{name}
		}
	}
	return nil
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return clean(t)
	case []any:
		for _, item := range t {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	case map[string]any:
		if u := stringValue(t["url"]); u != "" {
			return u
		}
		return stringValue(t["contentUrl"])
	}
	return ""
}

var bareNumber = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// yields normalizes recipeYield to text such as "4 servings".
func yields(v any) *string {
	var s string
	switch t := v.(type) {
	case string, float64:
		s = stringValue(t)
	case []any:
		// Sites often list both "4" and "4 servings"; prefer the descriptive one.
		for _, item := range t {
			candidate := stringValue(item)
			if candidate == "" {
				continue
			}
			if s == "" || (bareNumber.MatchString(s) && !bareNumber.MatchString(candidate)) {
				s = candidate
			}
		}
	}
	if s == "" {
		return nil
	}
	if bareNumber.MatchString(s) {
		if s == "1" {
			s += " serving"
		} else {
			s += " servings"
		}
	}
	return &s
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// durationMinutes converts an ISO 8601 duration such as "PT1H30M" to whole
// minutes.
func durationMinutes(s string) (int, bool) {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil || s == "" {
		return 0, false
	}
	atoi := func(x string) int {
		n, _ := strconv.Atoi(x)
		return n
	}
	seconds, _ := strconv.ParseFloat(m[4], 64)
	return atoi(m[1])*24*60 + atoi(m[2])*60 + atoi(m[3]) + int(seconds/60), true
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}

// clean unescapes HTML entities and collapses whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

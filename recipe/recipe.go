package recipe

import (
	"fmt"
	"net/url"
	"strings"
)

// Recipe is a validated recipe record. Values of this type only come out of
// Validate or from a ledger file written by this program, so the required
// fields are always populated.
type Recipe struct {
	CanonicalURL string   `json:"canonical_url"`
	Title        string   `json:"title"`
	SiteName     string   `json:"site_name"`
	Host         string   `json:"host"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Image        string   `json:"image"`
	Yields       string   `json:"yields,omitempty"`
	TotalTime    int      `json:"total_time,omitempty"` // minutes
	Category     string   `json:"category,omitempty"`
}

// Raw holds whatever a page parser managed to extract. Nothing in it is
// trusted; nil means the field was not found at all, while a non-nil empty
// value means the field was present but blank.
type Raw struct {
	CanonicalURL string
	Title        *string
	SiteName     *string
	Host         *string
	Ingredients  []string
	Instructions *string
	Image        *string
	Yields       *string
	TotalTime    int
	Category     string
}

// ValidationError reports why raw parser output could not become a Recipe.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks raw parser output and converts it into a Recipe. The fetch
// URL is authoritative: it replaces whatever canonical URL the page reported
// so the ledger key and the record never drift apart.
func Validate(raw *Raw, fetchURL string) (Recipe, error) {
	if raw == nil {
		return Recipe{}, &ValidationError{URL: fetchURL, Reason: "no recipe data"}
	}

	missing := func(key string) error {
		return &ValidationError{
			URL:    fetchURL,
			Reason: fmt.Sprintf("Didn't find %s in list of recipe elements. Failing. %s", key, fetchURL),
		}
	}

	// Required keys, in the order they are reported
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return Recipe{}, missing("title")
	}
	if raw.SiteName == nil || strings.TrimSpace(*raw.SiteName) == "" {
		return Recipe{}, missing("site_name")
	}
	if raw.Host == nil || strings.TrimSpace(*raw.Host) == "" {
		return Recipe{}, missing("host")
	}
	if raw.Ingredients == nil {
		return Recipe{}, missing("ingredients")
	}
	if raw.Instructions == nil {
		return Recipe{}, missing("instructions")
	}
	if raw.Image == nil {
		return Recipe{}, missing("image")
	}

	ingredients := make([]string, 0, len(raw.Ingredients))
	for _, ingredient := range raw.Ingredients {
		ingredient = strings.Join(strings.Fields(ingredient), " ")
		if ingredient != "" {
			ingredients = append(ingredients, ingredient)
		}
	}
	if len(ingredients) == 0 {
		return Recipe{}, &ValidationError{URL: fetchURL, Reason: "Ingredients list empty"}
	}

	instructions := strings.TrimSpace(*raw.Instructions)
	if instructions == "" {
		return Recipe{}, &ValidationError{URL: fetchURL, Reason: "Instructions blank"}
	}

	image := strings.TrimSpace(*raw.Image)
	if image == "" {
		return Recipe{}, &ValidationError{URL: fetchURL, Reason: "No recipe image"}
	}
	abs, ok := resolveImage(image, fetchURL)
	if !ok {
		return Recipe{}, &ValidationError{URL: fetchURL, Reason: fmt.Sprintf("Recipe image is not a URL: %q", image)}
	}
	image = abs

	r := Recipe{
		CanonicalURL: fetchURL,
		Title:        strings.Join(strings.Fields(*raw.Title), " "),
		SiteName:     strings.TrimSpace(*raw.SiteName),
		Host:         strings.TrimSpace(*raw.Host),
		Ingredients:  ingredients,
		Instructions: instructions,
		Image:        image,
		TotalTime:    raw.TotalTime,
		Category:     raw.Category,
	}
	if raw.Yields != nil {
		r.Yields = strings.TrimSpace(*raw.Yields)
	}

	return r, nil
}

// resolveImage makes image absolute against the page it was found on.
// Protocol-relative and relative references are common in recipe markup.
func resolveImage(image, pageURL string) (string, bool) {
	ref, err := url.Parse(image)
	if err != nil {
		return "", false
	}
	if base, err := url.Parse(pageURL); err == nil {
		ref = base.ResolveReference(ref)
	}
	if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
		return "", false
	}
	return ref.String(), true
}

// ContainsAny reports whether any ingredient contains any of the keywords as
// a case-insensitive substring. Keywords are expected in lower case.
func ContainsAny(ingredients []string, keywords []string) bool {
	for _, ingredient := range ingredients {
		if MatchIngredient(ingredient, keywords) {
			return true
		}
	}
	return false
}

// MatchIngredient reports whether a single ingredient line contains any of
// the keywords.
func MatchIngredient(ingredient string, keywords []string) bool {
	lower := strings.ToLower(ingredient)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Host returns the host of a recipe URL without a leading "www.", which is
// how recipes identify the site they came from.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

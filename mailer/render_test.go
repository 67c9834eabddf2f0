package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/pevans/weeklymeals/recipe"
	"github.com/pevans/weeklymeals/selection"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []selection.Entry {
	return []selection.Entry{
		{
			Kind: selection.SingleMain,
			URL:  "https://example.com/salmon/",
			Recipe: recipe.Recipe{
				Title:        "Salmon & Broccoli",
				SiteName:     "Fish Place",
				Host:         "example.com",
				Image:        "https://img.example.com/salmon.jpg",
				Ingredients:  []string{"1 lb salmon", "2 cups broccoli"},
				Instructions: "Roast the salmon.\nSteam the broccoli.",
				Yields:       "4 servings",
			},
		},
		{
			Kind: selection.ComboMain,
			URL:  "https://example.com/chicken/",
			Recipe: recipe.Recipe{
				Title:        "Chicken",
				SiteName:     "Bird House",
				Host:         "example.com",
				Image:        "https://img.example.com/chicken.jpg",
				Ingredients:  []string{"chicken"},
				Instructions: "Cook.",
			},
		},
		{
			Kind: selection.ComboSide,
			URL:  "https://example.com/slaw/",
			Recipe: recipe.Recipe{
				Title:        "Slaw",
				SiteName:     "Side Shop",
				Host:         "example.com",
				Image:        "https://img.example.com/slaw.jpg",
				Ingredients:  []string{"cabbage"},
				Instructions: "Toss.",
			},
		},
	}
}

// TestRender verifies cards, prefixes and the footer
func TestRender(t *testing.T) {
	r := NewRenderer("1.2.3")

	body, err := r.Render(testEntries(), Stats{Found: 42, Elapsed: 2500 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(body, `<div class="card">`))
	assert.Contains(t, body, "<h1>Salmon &amp; Broccoli</h1>")
	assert.Contains(t, body, "<h1>Main: Chicken</h1>")
	assert.Contains(t, body, "<h1>Side: Slaw</h1>")
	assert.Contains(t, body, "<i>4 servings | Fish Place</i>")
	assert.Contains(t, body, "<i>servings unknown | Bird House</i>")
	assert.Contains(t, body, `<img src="https://img.example.com/salmon.jpg"`)
	assert.Contains(t, body, "<li>2 cups broccoli</li>")
	assert.Contains(t, body, "<p>Roast the salmon.</p>")
	assert.Contains(t, body, "<p>Steam the broccoli.</p>")
	assert.Contains(t, body, "We found 42 recipes! These 3 were selected at random")
	assert.Contains(t, body, "It took 2.50 seconds to do this using v1.2.3.")
}

// TestRender_EscapesContent verifies scraped text cannot inject markup
func TestRender_EscapesContent(t *testing.T) {
	entries := testEntries()[:1]
	entries[0].Recipe.Title = `<script>alert("x")</script>`

	body, err := NewRenderer("1").Render(entries, Stats{})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>alert")
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{time.Second, "1000ms"},
		{1500 * time.Millisecond, "1.50 seconds"},
		{83 * time.Second, "83.00 seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.in))
		})
	}
}

// TestRenderError verifies the error and log lines appear in the report
func TestRenderError(t *testing.T) {
	body, err := NewRenderer("2.0").RenderError(eris.New("disk full"), "line one\nline <two>\n")
	require.NoError(t, err)

	assert.Contains(t, body, "<p>disk full</p>")
	assert.Contains(t, body, "line one<br />")
	assert.Contains(t, body, "line &lt;two&gt;<br />")
	assert.Contains(t, body, "weeklymeals v2.0")
}

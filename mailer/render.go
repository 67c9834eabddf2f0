// Package mailer renders meal selections and error reports as HTML email and
// sends them over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/pevans/weeklymeals/selection"
	"github.com/rotisserie/eris"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// Stats feeds the footer of the meal email.
type Stats struct {
	// Found is the number of unused mains and sides available this run.
	Found   int
	Elapsed time.Duration
}

// Renderer builds email bodies.
type Renderer struct {
	Version string
}

// NewRenderer creates a Renderer that stamps version into its footers.
func NewRenderer(version string) *Renderer {
	return &Renderer{Version: version}
}

type card struct {
	Heading     string
	Title       string
	Servings    string
	SiteName    string
	Host        string
	Image       string
	Ingredients []string
	Steps       []string
}

// Render returns the HTML body for a meal selection.
func (r *Renderer) Render(entries []selection.Entry, stats Stats) (string, error) {
	cards := make([]card, 0, len(entries))
	for _, e := range entries {
		rec := e.Recipe
		c := card{
			Heading:     rec.Title,
			Title:       rec.Title,
			Servings:    rec.Yields,
			SiteName:    rec.SiteName,
			Host:        rec.Host,
			Image:       rec.Image,
			Ingredients: rec.Ingredients,
			Steps:       splitLines(rec.Instructions),
		}
		switch e.Kind {
		case selection.ComboMain:
			c.Heading = "Main: " + rec.Title
		case selection.ComboSide:
			c.Heading = "Side: " + rec.Title
		}
		if c.Servings == "" {
			c.Servings = "servings unknown"
		}
		cards = append(cards, c)
	}

	data := struct {
		Title    string
		Cards    []card
		Found    int
		Selected int
		Elapsed  string
		Version  string
	}{
		Title:    "Delicious Recipes",
		Cards:    cards,
		Found:    stats.Found,
		Selected: len(entries),
		Elapsed:  FormatElapsed(stats.Elapsed),
		Version:  r.Version,
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "meals", data); err != nil {
		return "", eris.Wrap(err, "failed to render meals")
	}
	return buf.String(), nil
}

// RenderError returns the HTML body of a failure report. logText is the
// content of the error log, one entry per line.
func (r *Renderer) RenderError(runErr error, logText string) (string, error) {
	data := struct {
		Title   string
		Error   string
		Lines   []string
		Version string
	}{
		Title:   "Weekly Meals: run failed",
		Lines:   splitLines(logText),
		Version: r.Version,
	}
	if runErr != nil {
		data.Error = runErr.Error()
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "error", data); err != nil {
		return "", eris.Wrap(err, "failed to render error report")
	}
	return buf.String(), nil
}

// FormatElapsed formats d as "1.23 seconds" when it exceeds one second and
// as whole milliseconds otherwise.
func FormatElapsed(d time.Duration) string {
	if d > time.Second {
		return fmt.Sprintf("%.2f seconds", d.Seconds())
	}
	return fmt.Sprintf("%dms", d.Round(time.Millisecond).Milliseconds())
}

func splitLines(s string) []string {
	var lines []string
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

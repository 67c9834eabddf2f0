// Package planner runs one weekly meal planning cycle: refresh the recipe
// ledger when it is stale, pick the meals, email them, and record what was
// sent.
package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/weeklymeals/discovery"
	"github.com/pevans/weeklymeals/history"
	"github.com/pevans/weeklymeals/ledger"
	"github.com/pevans/weeklymeals/mailer"
	"github.com/pevans/weeklymeals/selection"
	"github.com/pevans/weeklymeals/sources"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrorLogFile is written to the data directory when a run fails.
const ErrorLogFile = "error.log"

// Acquirer refreshes a ledger from the recipe sites.
type Acquirer interface {
	Acquire(ctx context.Context, registry sources.Registry, l *ledger.Ledger) (*discovery.Report, error)
}

// Renderer produces email bodies.
type Renderer interface {
	Render(entries []selection.Entry, stats mailer.Stats) (string, error)
	RenderError(runErr error, logText string) (string, error)
}

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Recorder stores run history.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Mail holds the addressing of outgoing messages.
type Mail struct {
	From    string
	Bcc     []string
	Subject string
}

// Deps are the collaborators and settings of a Planner.
type Deps struct {
	DataDir   string
	Registry  sources.Registry
	Threshold time.Duration
	Acquirer  Acquirer
	Selector  *selection.Selector
	Renderer  Renderer
	Sender    Sender
	// History may be nil, in which case runs are not recorded.
	History Recorder
	Mail    Mail
	Logger  *zap.Logger
	Now     func() time.Time
}

// Planner runs meal planning cycles.
type Planner struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time
}

// New creates a new Planner.
func New(deps Deps) *Planner {
	p := &Planner{deps: deps, log: deps.Logger, now: deps.Now}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if deps.Selector == nil {
		p.deps.Selector = selection.NewSelector(nil, p.log)
	}
	return p
}

// Options select how a run behaves.
type Options struct {
	// Debug starts from an empty ledger, always refreshes, mails only the
	// sender and persists nothing.
	Debug bool
	// Source limits acquisition to one registry entry when non-empty.
	Source string
}

// Result describes a finished run.
type Result struct {
	RunID     uuid.UUID
	Outcome   history.Outcome
	Meals     []selection.Entry
	Refreshed bool
	Report    *discovery.Report
}

// Run executes one cycle. Insufficient variety is not an error: the result
// carries history.OutcomeInsufficient and nothing is sent or marked used.
func (p *Planner) Run(ctx context.Context, opts Options) (res *Result, err error) {
	start := p.now()
	res = &Result{RunID: uuid.New()}
	log := p.log.With(zap.String("run_id", res.RunID.String()))

	var l *ledger.Ledger
	if !opts.Debug {
		defer func() {
			p.record(ctx, log, start, res, l, err)
		}()
	}

	registry := p.deps.Registry
	if opts.Source != "" {
		if registry, err = registry.Only(opts.Source); err != nil {
			return res, err
		}
	}

	if opts.Debug {
		l = ledger.Empty()
		res.Refreshed = true
	} else {
		var created ledger.Created
		l, created, err = ledger.Open(p.deps.DataDir, log)
		if err != nil {
			return res, eris.Wrap(err, "failed to load ledger")
		}
		age, _ := ledger.Age(l.MainsPath(), start)
		res.Refreshed = ledger.NeedsRefresh(created.Mains, created.Sides, age, p.deps.Threshold)
	}

	if res.Refreshed {
		log.Info("ledger is stale, getting fresh recipes", zap.Int("sources", len(registry)))
		res.Report, err = p.deps.Acquirer.Acquire(ctx, registry, l)
		if !opts.Debug {
			// Keep whatever was acquired even if the pass was cut short.
			if saveErr := p.saveAcquired(l); saveErr != nil && err == nil {
				err = saveErr
			}
		}
		if err != nil {
			return res, eris.Wrap(err, "acquisition failed")
		}
	}

	log.Info("selecting meals",
		zap.Int("unused_mains", len(l.UnusedMain)),
		zap.Int("unused_sides", len(l.UnusedSide)))
	res.Meals, err = p.deps.Selector.Select(l.UnusedMain, l.UnusedSide)
	if selection.IsInsufficient(err) {
		log.Warn("not enough recipe variety, skipping this week", zap.Error(err))
		res.Outcome = history.OutcomeInsufficient
		res.Meals = nil
		return res, nil
	}
	if err != nil {
		return res, eris.Wrap(err, "meal selection failed")
	}

	body, err := p.deps.Renderer.Render(res.Meals, mailer.Stats{
		Found:   len(l.UnusedMain) + len(l.UnusedSide),
		Elapsed: p.now().Sub(start),
	})
	if err != nil {
		return res, err
	}

	msg := mailer.Message{
		From:    p.deps.Mail.From,
		Bcc:     p.deps.Mail.Bcc,
		Subject: p.deps.Mail.Subject,
		HTML:    body,
	}
	if opts.Debug {
		msg.Bcc = []string{p.deps.Mail.From}
	}
	if err = p.deps.Sender.Send(ctx, msg); err != nil {
		return res, eris.Wrap(err, "failed to send meals")
	}
	res.Outcome = history.OutcomeSent

	if opts.Debug {
		return res, nil
	}

	date := start.Format("2006-01-02")
	for _, e := range res.Meals {
		if l.MarkUsed(e.URL, date) {
			continue
		}
		// A side paired with two mains is already used after the first.
		if _, used := l.Used[e.URL]; !used {
			log.Warn("selected recipe was in neither unused list", zap.String("url", e.URL))
		}
	}
	if err = l.SaveAll(); err != nil {
		return res, eris.Wrap(err, "failed to save ledger")
	}

	log.Info("run complete",
		zap.Int("meals", len(res.Meals)),
		zap.Int("unused_mains", len(l.UnusedMain)),
		zap.Int("unused_sides", len(l.UnusedSide)))
	return res, nil
}

func (p *Planner) saveAcquired(l *ledger.Ledger) error {
	if err := l.SaveUnused(); err != nil {
		return eris.Wrap(err, "failed to save unused recipes")
	}
	if err := l.SaveFailed(); err != nil {
		return eris.Wrap(err, "failed to save failed recipes")
	}
	return nil
}

// record writes the run to history. Failures are logged and never change
// the run's result.
func (p *Planner) record(ctx context.Context, log *zap.Logger, start time.Time, res *Result, l *ledger.Ledger, runErr error) {
	if p.deps.History == nil {
		return
	}

	run := history.Run{
		ID:         res.RunID,
		StartedAt:  start,
		FinishedAt: p.now(),
		Outcome:    res.Outcome,
		Refreshed:  res.Refreshed,
	}
	if runErr != nil {
		run.Outcome = history.OutcomeFailed
		run.Error = runErr.Error()
	}
	if l != nil {
		run.UnusedMains = len(l.UnusedMain)
		run.UnusedSides = len(l.UnusedSide)
	}
	if run.Outcome == history.OutcomeSent {
		for _, e := range res.Meals {
			run.Recipes = append(run.Recipes, history.SentRecipe{
				URL:   e.URL,
				Kind:  string(e.Kind),
				Title: e.Recipe.Title,
			})
		}
	}

	// Record even when the run was cancelled.
	if err := p.deps.History.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error("failed to record run history", zap.Error(err))
	}
}

// ReportFailure writes runErr to the error log in the data directory and
// emails the report to the sender.
func (p *Planner) ReportFailure(ctx context.Context, runErr error) error {
	logText := fmt.Sprintf("%s Code failed, see below: %s",
		p.now().Format(time.RFC3339), eris.ToString(runErr, true))

	path := filepath.Join(p.deps.DataDir, ErrorLogFile)
	if err := os.MkdirAll(p.deps.DataDir, 0o700); err != nil {
		p.log.Error("failed to create data directory", zap.Error(err))
	} else if err := os.WriteFile(path, []byte(logText+"\n"), 0o600); err != nil {
		p.log.Error("failed to write error log", zap.String("path", path), zap.Error(err))
	}

	body, err := p.deps.Renderer.RenderError(runErr, logText)
	if err != nil {
		return err
	}

	subject := p.deps.Mail.Subject + ": run failed"
	if err := p.deps.Sender.Send(context.WithoutCancel(ctx), mailer.Message{
		From:    p.deps.Mail.From,
		Bcc:     []string{p.deps.Mail.From},
		Subject: subject,
		HTML:    body,
	}); err != nil {
		return eris.Wrap(err, "failed to send error report")
	}
	return nil
}

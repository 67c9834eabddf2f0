package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/pevans/weeklymeals/ledger"
	"github.com/pevans/weeklymeals/recipe"
	"github.com/pevans/weeklymeals/sources"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Outcome is the result of processing one candidate recipe URL.
type Outcome string

const (
	// OutcomeStored means the recipe was validated and added to an unused
	// collection.
	OutcomeStored Outcome = "stored"
	// OutcomeSkipped means a transient error occurred; the URL is not
	// recorded and will be tried again on a later run.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the URL was recorded in the failed collection.
	OutcomeFailed Outcome = "failed"
)

// Report summarizes one acquisition pass.
type Report struct {
	MainCandidates int
	SideCandidates int
	NewMains       int
	NewSides       int
	Failed         int
	Skipped        int
	// ListingErrors counts listing pages that could not be fetched or read.
	ListingErrors int
}

// Acquirer discovers recipe links on the registered sites and merges new,
// valid recipes into a ledger.
type Acquirer struct {
	fetcher Fetcher
	parser  Parser
	filter  Filter
	logger  *zap.Logger
}

// NewAcquirer creates a new Acquirer. A nil logger discards output.
func NewAcquirer(fetcher Fetcher, parser Parser, filter Filter, logger *zap.Logger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{
		fetcher: fetcher,
		parser:  parser,
		filter:  filter,
		logger:  logger,
	}
}

// Acquire gathers candidate links from every source in registry, drops any
// URL the ledger already knows, and processes the rest. Only context
// cancellation stops the pass early; every other per-page error is recorded
// or skipped.
func (a *Acquirer) Acquire(ctx context.Context, registry sources.Registry, l *ledger.Ledger) (*Report, error) {
	mains := map[string]struct{}{}
	sides := map[string]struct{}{}
	report := &Report{}

	for _, name := range registry.Names() {
		d := registry[name]
		for _, listing := range []struct {
			url string
			set map[string]struct{}
		}{
			{d.MainCourse, mains},
			{d.SideDish, sides},
		} {
			links, err := a.listingLinks(ctx, d, listing.url)
			if err != nil {
				if ctx.Err() != nil {
					return report, eris.Wrap(ctx.Err(), "acquisition cancelled")
				}
				report.ListingErrors++
				a.logger.Warn("listing page unavailable, skipping",
					zap.String("source", d.Name),
					zap.String("url", listing.url),
					zap.Error(err))
				continue
			}
			for _, link := range a.filter.Clean(links) {
				listing.set[link] = struct{}{}
			}
		}
	}

	// A URL listed as both a main and a side is kept as a main.
	for u := range mains {
		delete(sides, u)
	}

	mainURLs := unknown(mains, l)
	sideURLs := unknown(sides, l)
	report.MainCandidates = len(mainURLs)
	report.SideCandidates = len(sideURLs)
	a.logger.Info("discovered candidate recipes",
		zap.Int("mains", len(mainURLs)),
		zap.Int("sides", len(sideURLs)))

	for _, batch := range []struct {
		urls  []string
		into  map[string]recipe.Recipe
		count *int
	}{
		{mainURLs, l.UnusedMain, &report.NewMains},
		{sideURLs, l.UnusedSide, &report.NewSides},
	} {
		for _, u := range batch.urls {
			if err := ctx.Err(); err != nil {
				return report, eris.Wrap(err, "acquisition cancelled")
			}
			switch a.process(ctx, u, batch.into, l) {
			case OutcomeStored:
				*batch.count++
			case OutcomeFailed:
				report.Failed++
			case OutcomeSkipped:
				if ctx.Err() != nil {
					return report, eris.Wrap(ctx.Err(), "acquisition cancelled")
				}
				report.Skipped++
			}
		}
	}

	a.logger.Info("acquisition complete",
		zap.Int("new_mains", report.NewMains),
		zap.Int("new_sides", report.NewSides),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (a *Acquirer) listingLinks(ctx context.Context, d sources.Descriptor, listingURL string) ([]string, error) {
	text, err := a.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	if d.Mode() == sources.DiscoveryFeed {
		return FeedLinks(text)
	}

	pattern, err := d.Regexp()
	if err != nil {
		return nil, err
	}
	skip, err := d.SkipRegexp()
	if err != nil {
		return nil, err
	}
	return ExtractLinks(text, pattern, skip), nil
}

// unknown returns the sorted members of set that appear in no ledger
// collection.
func unknown(set map[string]struct{}, l *ledger.Ledger) []string {
	urls := make([]string, 0, len(set))
	for u := range set {
		if !l.Knows(u) {
			urls = append(urls, u)
		}
	}
	sort.Strings(urls)
	return urls
}

// process fetches, parses and validates one recipe page.
func (a *Acquirer) process(ctx context.Context, pageURL string, into map[string]recipe.Recipe, l *ledger.Ledger) Outcome {
	log := a.logger.With(zap.String("url", pageURL))

	page, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if IsTransient(err) {
			log.Warn("recipe page unavailable, will retry next run", zap.Error(err))
			return OutcomeSkipped
		}
		return a.fail(l, pageURL, err)
	}

	raw, err := a.parse(page, pageURL)
	if err != nil {
		return a.fail(l, pageURL, err)
	}

	r, err := recipe.Validate(raw, pageURL)
	if err != nil {
		return a.fail(l, pageURL, err)
	}

	into[pageURL] = r
	log.Debug("stored recipe", zap.String("title", r.Title))
	return OutcomeStored
}

// parse runs the parser, converting a panic on hostile markup into an error.
func (a *Acquirer) parse(page, pageURL string) (raw *recipe.Raw, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = eris.Errorf("parser panic: %v", r)
		}
	}()
	return a.parser.Parse(page, pageURL)
}

func (a *Acquirer) fail(l *ledger.Ledger, pageURL string, err error) Outcome {
	reason := fmt.Sprintf("FAILS due to: %s", err)
	l.Failed[pageURL] = reason
	a.logger.Info("recipe failed", zap.String("url", pageURL), zap.String("reason", reason))
	return OutcomeFailed
}

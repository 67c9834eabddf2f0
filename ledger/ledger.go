// Package ledger persists the recipe ledger: the unused main and side
// recipes, the recipes already sent, and the URLs known to fail. Each
// collection is a flat JSON object keyed by recipe URL.
package ledger

import (
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/pevans/weeklymeals/recipe"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// File names of the four collections inside the ledger directory.
const (
	UnusedMainsFile = "unused_mains_recipes.json"
	UnusedSidesFile = "unused_sides_recipes.json"
	UsedFile        = "used_recipes.json"
	FailedFile      = "failed_recipes.json"
)

// Ledger is the in-memory state of a run. The four key sets are kept
// pairwise disjoint.
type Ledger struct {
	UnusedMain map[string]recipe.Recipe
	UnusedSide map[string]recipe.Recipe
	Used       map[string]string // URL -> YYYY-MM-DD
	Failed     map[string]string // URL -> reason

	dir string
}

// Created records which collection files were missing or unreadable when the
// ledger was opened.
type Created struct {
	Mains  bool
	Sides  bool
	Used   bool
	Failed bool
}

// Empty returns a ledger with no backing directory. It is used in debug
// mode, where nothing on disk is read or written.
func Empty() *Ledger {
	return &Ledger{
		UnusedMain: map[string]recipe.Recipe{},
		UnusedSide: map[string]recipe.Recipe{},
		Used:       map[string]string{},
		Failed:     map[string]string{},
	}
}

// Open loads all four collections from dir, creating any that are missing.
func Open(dir string, logger *zap.Logger) (*Ledger, Created, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var created Created
	l := &Ledger{dir: dir}

	var err error
	if l.UnusedMain, created.Mains, err = loadRecipes(filepath.Join(dir, UnusedMainsFile), logger); err != nil {
		return nil, created, err
	}
	if l.UnusedSide, created.Sides, err = loadRecipes(filepath.Join(dir, UnusedSidesFile), logger); err != nil {
		return nil, created, err
	}
	if l.Used, created.Used, err = Load[string](filepath.Join(dir, UsedFile)); err != nil {
		return nil, created, err
	}
	if l.Failed, created.Failed, err = Load[string](filepath.Join(dir, FailedFile)); err != nil {
		return nil, created, err
	}

	for name, wasCreated := range map[string]bool{
		UnusedMainsFile: created.Mains,
		UnusedSidesFile: created.Sides,
		UsedFile:        created.Used,
		FailedFile:      created.Failed,
	} {
		if wasCreated {
			logger.Info("initialized empty ledger file", zap.String("file", name))
		}
	}

	return l, created, nil
}

// loadRecipes decodes each entry separately so one malformed record does
// not cost the whole collection.
func loadRecipes(path string, logger *zap.Logger) (map[string]recipe.Recipe, bool, error) {
	raw, created, err := Load[json.RawMessage](path)
	if err != nil {
		return nil, false, err
	}

	recipes := make(map[string]recipe.Recipe, len(raw))
	for url, entry := range raw {
		var r recipe.Recipe
		if err := json.Unmarshal(entry, &r); err != nil {
			logger.Warn("dropping malformed recipe",
				zap.String("file", filepath.Base(path)),
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		recipes[url] = r
	}
	return recipes, created, nil
}

// Dir returns the directory backing the ledger, or "" for an Empty ledger.
func (l *Ledger) Dir() string {
	return l.dir
}

// MainsPath returns the path of the unused mains file, whose age drives the
// refresh decision.
func (l *Ledger) MainsPath() string {
	return filepath.Join(l.dir, UnusedMainsFile)
}

// SaveUnused writes the unused main and side collections.
func (l *Ledger) SaveUnused() error {
	if l.dir == "" {
		return eris.New("ledger has no directory")
	}
	if err := Save(filepath.Join(l.dir, UnusedMainsFile), l.UnusedMain); err != nil {
		return err
	}
	return Save(filepath.Join(l.dir, UnusedSidesFile), l.UnusedSide)
}

// SaveFailed writes the failed collection.
func (l *Ledger) SaveFailed() error {
	if l.dir == "" {
		return eris.New("ledger has no directory")
	}
	return Save(filepath.Join(l.dir, FailedFile), l.Failed)
}

// SaveAll writes all four collections.
func (l *Ledger) SaveAll() error {
	if err := l.SaveUnused(); err != nil {
		return err
	}
	if err := l.SaveFailed(); err != nil {
		return err
	}
	return Save(filepath.Join(l.dir, UsedFile), l.Used)
}

// Knows reports whether url is present in any collection.
func (l *Ledger) Knows(url string) bool {
	if _, ok := l.UnusedMain[url]; ok {
		return true
	}
	if _, ok := l.UnusedSide[url]; ok {
		return true
	}
	if _, ok := l.Used[url]; ok {
		return true
	}
	_, ok := l.Failed[url]
	return ok
}

// MarkUsed moves url out of whichever unused collection holds it and records
// it as sent on date. It returns false if url was in neither unused
// collection, in which case nothing changes.
func (l *Ledger) MarkUsed(url, date string) bool {
	if _, ok := l.UnusedMain[url]; ok {
		delete(l.UnusedMain, url)
	} else if _, ok := l.UnusedSide[url]; ok {
		delete(l.UnusedSide, url)
	} else {
		return false
	}
	l.Used[url] = date
	return true
}

// CheckDisjoint returns an error naming the first URL found in more than one
// collection.
func (l *Ledger) CheckDisjoint() error {
	seen := map[string]string{}
	check := func(name string, keys []string) error {
		for _, key := range keys {
			if other, ok := seen[key]; ok {
				return eris.Errorf("%s is in both %s and %s", key, other, name)
			}
			seen[key] = name
		}
		return nil
	}

	if err := check("unused_main", sortedKeys(l.UnusedMain)); err != nil {
		return err
	}
	if err := check("unused_side", sortedKeys(l.UnusedSide)); err != nil {
		return err
	}
	if err := check("used", sortedKeys(l.Used)); err != nil {
		return err
	}
	return check("failed", sortedKeys(l.Failed))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

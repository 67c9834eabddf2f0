// Package selection picks a protein-balanced set of main courses from the
// unused recipes and pairs mains that lack vegetables with a side dish.
package selection

import (
	"math/rand/v2"
	"sort"

	"github.com/pevans/weeklymeals/recipe"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Selection outcomes that end a run without sending anything.
var (
	ErrInsufficientVariety = eris.New("not enough protein variety to build a meal plan")
	ErrNoSides             = eris.New("a main needs a side dish but none are available")
)

// IsInsufficient reports whether err means the ledger cannot support a meal
// plan this run.
func IsInsufficient(err error) bool {
	return eris.Is(err, ErrInsufficientVariety) || eris.Is(err, ErrNoSides)
}

// Kind tags an entry of a meal selection.
type Kind string

const (
	SingleMain Kind = "single_main"
	ComboMain  Kind = "combo_main"
	ComboSide  Kind = "combo_side"
)

// Pick is a main course chosen by PickProteins.
type Pick struct {
	URL    string
	Recipe recipe.Recipe
}

// Entry is one line of a meal selection. A ComboMain entry is always
// immediately followed by its ComboSide.
type Entry struct {
	Kind   Kind
	URL    string
	Recipe recipe.Recipe
}

// Policy sets how many mains of each protein category are drawn.
type Policy struct {
	// LandfoodWithSeafood is the landfood count when seafood is available.
	LandfoodWithSeafood int
	Seafood             int
	// LandfoodNoSeafood is the landfood count when no seafood is available.
	LandfoodNoSeafood int
}

// DefaultPolicy returns two landfood and one seafood main, or three
// landfood mains when there is no seafood.
func DefaultPolicy() Policy {
	return Policy{
		LandfoodWithSeafood: 2,
		Seafood:             1,
		LandfoodNoSeafood:   3,
	}
}

// Selector draws meal selections using its own random source.
type Selector struct {
	Policy   Policy
	Keywords Keywords

	rng    *rand.Rand
	logger *zap.Logger
}

// NewSelector creates a Selector with the default policy and keywords. A nil
// rng is seeded randomly; a nil logger discards output.
func NewSelector(rng *rand.Rand, logger *zap.Logger) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		Policy:   DefaultPolicy(),
		Keywords: DefaultKeywords(),
		rng:      rng,
		logger:   logger,
	}
}

// Select runs PickProteins followed by PairSides.
func (s *Selector) Select(mains, sides map[string]recipe.Recipe) ([]Entry, error) {
	picks, err := s.PickProteins(mains)
	if err != nil {
		return nil, err
	}
	return s.PairSides(picks, sides)
}

func sortedURLs(m map[string]recipe.Recipe) []string {
	urls := make([]string, 0, len(m))
	for u := range m {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

package selection

import (
	"github.com/pevans/weeklymeals/recipe"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Category is the protein class of a main course.
type Category int

const (
	None Category = iota
	Seafood
	Landfood
)

func (c Category) String() string {
	switch c {
	case Seafood:
		return "seafood"
	case Landfood:
		return "landfood"
	}
	return "none"
}

// Classify returns the protein category of r. Seafood wins when a recipe
// matches both keyword sets.
func (s *Selector) Classify(r recipe.Recipe) Category {
	if recipe.ContainsAny(r.Ingredients, s.Keywords.Seafood) {
		return Seafood
	}
	if recipe.ContainsAny(r.Ingredients, s.Keywords.Landfood) {
		return Landfood
	}
	return None
}

// PickProteins draws mains according to the selector's Policy: landfood
// picks first, then seafood. Mains matching no protein keyword are left
// alone. It returns ErrInsufficientVariety when the policy cannot be met.
func (s *Selector) PickProteins(mains map[string]recipe.Recipe) ([]Pick, error) {
	var seafood, landfood []Pick

	// Map order is random; sort first so a seeded rng is reproducible.
	for _, u := range sortedURLs(mains) {
		r := mains[u]
		if len(r.Ingredients) == 0 {
			s.logger.Warn("skipping main with no ingredients", zap.String("url", u))
			continue
		}
		switch s.Classify(r) {
		case Seafood:
			seafood = append(seafood, Pick{URL: u, Recipe: r})
		case Landfood:
			landfood = append(landfood, Pick{URL: u, Recipe: r})
		}
	}

	s.shuffle(seafood)
	s.shuffle(landfood)

	landCount, seaCount := s.Policy.LandfoodNoSeafood, 0
	if len(seafood) > 0 {
		landCount, seaCount = s.Policy.LandfoodWithSeafood, s.Policy.Seafood
	}
	if len(landfood) < landCount || len(seafood) < seaCount {
		return nil, eris.Wrapf(ErrInsufficientVariety,
			"%d seafood and %d landfood mains available", len(seafood), len(landfood))
	}

	s.logger.Debug("picked proteins",
		zap.Int("seafood_candidates", len(seafood)),
		zap.Int("landfood_candidates", len(landfood)))

	picks := make([]Pick, 0, landCount+seaCount)
	picks = append(picks, landfood[:landCount]...)
	picks = append(picks, seafood[:seaCount]...)
	return picks, nil
}

func (s *Selector) shuffle(picks []Pick) {
	s.rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
}

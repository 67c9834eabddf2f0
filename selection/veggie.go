package selection

import (
	"github.com/pevans/weeklymeals/recipe"
	"github.com/rotisserie/eris"
)

// Keywords are the lower-case ingredient substrings used to classify recipes.
type Keywords struct {
	Seafood  []string
	Landfood []string
	Veggies  []string
}

// DefaultKeywords returns the built-in protein and vegetable keywords.
func DefaultKeywords() Keywords {
	return Keywords{
		Seafood:  []string{"scallops", "salmon", "shrimp", "tuna"},
		Landfood: []string{"chickpea", "chicken", "turkey", "pork", "tofu"},
		Veggies: []string{
			"acorn squash",
			"artichoke",
			"arugula",
			"asparagus",
			"bell pepper",
			"broccoli",
			"broccolini",
			"brussel sprouts",
			"butternut squash",
			"cabbage",
			"carrot",
			"cannellini",
			"cauliflower",
			"celery",
			"cucumber",
			"eggplant",
			"garbanzo",
			"green bean",
			"kale",
			"kohlrabi",
			"lettuce",
			"mushroom",
			"nori",
			"ogonori",
			"okra",
			"peas",
			"potato",
			"radish",
			"snap pea",
			"soybean",
			"spinach",
			"squash",
			"yam",
			"zucchini",
		},
	}
}

// HasVeggies reports whether r contains any vegetable keyword.
func (s *Selector) HasVeggies(r recipe.Recipe) bool {
	return recipe.ContainsAny(r.Ingredients, s.Keywords.Veggies)
}

// PairSides turns picks into a meal selection. A main with vegetables is a
// SingleMain; any other main becomes a ComboMain followed by a side drawn
// uniformly, with replacement, from sides.
func (s *Selector) PairSides(picks []Pick, sides map[string]recipe.Recipe) ([]Entry, error) {
	var sideURLs []string
	entries := make([]Entry, 0, len(picks)*2)

	for _, p := range picks {
		if s.HasVeggies(p.Recipe) {
			entries = append(entries, Entry{Kind: SingleMain, URL: p.URL, Recipe: p.Recipe})
			continue
		}

		if sideURLs == nil {
			sideURLs = sortedURLs(sides)
		}
		if len(sideURLs) == 0 {
			return nil, eris.Wrapf(ErrNoSides, "%s has no vegetables", p.URL)
		}
		side := sideURLs[s.rng.IntN(len(sideURLs))]

		entries = append(entries,
			Entry{Kind: ComboMain, URL: p.URL, Recipe: p.Recipe},
			Entry{Kind: ComboSide, URL: side, Recipe: sides[side]},
		)
	}
	return entries, nil
}

package selection

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/pevans/weeklymeals/recipe"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSelector(seed uint64) *Selector {
	return NewSelector(rand.New(rand.NewPCG(seed, seed)), zap.NewNop())
}

func mains(n int, prefix string, ingredients ...string) map[string]recipe.Recipe {
	m := map[string]recipe.Recipe{}
	for i := range n {
		u := fmt.Sprintf("https://example.com/%s-%d/", prefix, i)
		m[u] = recipe.Recipe{CanonicalURL: u, Title: u, Ingredients: ingredients}
	}
	return m
}

func merge(ms ...map[string]recipe.Recipe) map[string]recipe.Recipe {
	out := map[string]recipe.Recipe{}
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// TestClassify verifies keyword categories and the seafood tie-break
func TestClassify(t *testing.T) {
	s := newTestSelector(1)

	tests := []struct {
		name        string
		ingredients []string
		want        Category
	}{
		{"seafood", []string{"1 lb Salmon fillet"}, Seafood},
		{"landfood", []string{"2 chicken thighs"}, Landfood},
		{"both", []string{"1 lb pork", "8 oz shrimp"}, Seafood},
		{"neither", []string{"1 cup lentils"}, None},
		{"plural substring", []string{"1 can chickpeas"}, Landfood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(recipe.Recipe{Ingredients: tt.ingredients}))
		})
	}
}

// TestPickProteins_WithSeafood verifies two landfood then one seafood
func TestPickProteins_WithSeafood(t *testing.T) {
	for seed := range uint64(20) {
		s := newTestSelector(seed)
		picks, err := s.PickProteins(merge(
			mains(4, "chicken", "chicken"),
			mains(3, "tuna", "tuna"),
			mains(2, "lentil", "lentils"),
		))
		require.NoError(t, err)
		require.Len(t, picks, 3)

		assert.Equal(t, Landfood, s.Classify(picks[0].Recipe))
		assert.Equal(t, Landfood, s.Classify(picks[1].Recipe))
		assert.Equal(t, Seafood, s.Classify(picks[2].Recipe))
		assert.NotEqual(t, picks[0].URL, picks[1].URL, "picks are distinct")
	}
}

// TestPickProteins_NoSeafood verifies three landfood when seafood is absent
func TestPickProteins_NoSeafood(t *testing.T) {
	s := newTestSelector(7)
	picks, err := s.PickProteins(mains(5, "pork", "pork loin"))
	require.NoError(t, err)
	require.Len(t, picks, 3)

	seen := map[string]bool{}
	for _, p := range picks {
		assert.Equal(t, Landfood, s.Classify(p.Recipe))
		seen[p.URL] = true
	}
	assert.Len(t, seen, 3)
}

// TestPickProteins_Insufficient verifies the quota failures are typed
func TestPickProteins_Insufficient(t *testing.T) {
	tests := []struct {
		name  string
		mains map[string]recipe.Recipe
	}{
		{"empty", map[string]recipe.Recipe{}},
		{"seafood with one landfood", merge(mains(1, "chicken", "chicken"), mains(2, "salmon", "salmon"))},
		{"two landfood no seafood", mains(2, "tofu", "tofu")},
		{"only unclassified", mains(5, "bean", "black beans")},
		{"malformed records", mains(5, "empty")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSelector(1).PickProteins(tt.mains)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInsufficientVariety))
			assert.True(t, IsInsufficient(err))
		})
	}
}

// TestPickProteins_Deterministic verifies a fixed seed gives a fixed result
func TestPickProteins_Deterministic(t *testing.T) {
	pool := merge(mains(10, "turkey", "turkey"), mains(10, "shrimp", "shrimp"))

	a, err := newTestSelector(42).PickProteins(pool)
	require.NoError(t, err)
	b, err := newTestSelector(42).PickProteins(pool)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// TestPickProteins_DoesNotMutate verifies the input collection is untouched
func TestPickProteins_DoesNotMutate(t *testing.T) {
	pool := merge(mains(3, "chicken", "chicken"), mains(2, "lentil", "lentils"))

	_, err := newTestSelector(3).PickProteins(pool)
	require.NoError(t, err)
	assert.Len(t, pool, 5)
}

// TestPairSides verifies single mains and combo pairs
func TestPairSides(t *testing.T) {
	s := newTestSelector(1)
	sides := mains(3, "side", "1 cup rice")
	picks := []Pick{
		{URL: "https://example.com/veg/", Recipe: recipe.Recipe{Ingredients: []string{"chicken", "2 cups Spinach"}}},
		{URL: "https://example.com/plain/", Recipe: recipe.Recipe{Ingredients: []string{"chicken", "rice"}}},
	}

	entries, err := s.PairSides(picks, sides)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, SingleMain, entries[0].Kind)
	assert.Equal(t, "https://example.com/veg/", entries[0].URL)
	assert.Equal(t, ComboMain, entries[1].Kind)
	assert.Equal(t, "https://example.com/plain/", entries[1].URL)
	assert.Equal(t, ComboSide, entries[2].Kind)
	assert.Contains(t, sides, entries[2].URL)
	assert.Equal(t, sides[entries[2].URL], entries[2].Recipe)
}

// TestPairSides_Laws verifies single mains have vegetables and combo mains
// do not
func TestPairSides_Laws(t *testing.T) {
	s := newTestSelector(9)
	picks := []Pick{}
	for i, ing := range []string{"kale", "pork", "zucchini", "tofu", "shrimp", "Brussel Sprouts"} {
		picks = append(picks, Pick{
			URL:    fmt.Sprintf("https://example.com/%d/", i),
			Recipe: recipe.Recipe{Ingredients: []string{ing}},
		})
	}

	entries, err := s.PairSides(picks, mains(2, "side", "carrot"))
	require.NoError(t, err)

	for i, e := range entries {
		switch e.Kind {
		case SingleMain:
			assert.True(t, s.HasVeggies(e.Recipe), e.URL)
		case ComboMain:
			assert.False(t, s.HasVeggies(e.Recipe), e.URL)
			require.Less(t, i+1, len(entries))
			assert.Equal(t, ComboSide, entries[i+1].Kind)
		case ComboSide:
			require.Positive(t, i)
			assert.Equal(t, ComboMain, entries[i-1].Kind)
		}
	}
	assert.Len(t, entries, 9)
}

// TestPairSides_NoSides verifies a side-less ledger is a typed failure
func TestPairSides_NoSides(t *testing.T) {
	s := newTestSelector(1)

	entries, err := s.PairSides([]Pick{{URL: "a", Recipe: recipe.Recipe{Ingredients: []string{"kale"}}}}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = s.PairSides([]Pick{{URL: "b", Recipe: recipe.Recipe{Ingredients: []string{"pork"}}}}, nil)
	assert.True(t, eris.Is(err, ErrNoSides))
	assert.True(t, IsInsufficient(err))
}

// TestSelect_EndToEnd verifies one salmon main with broccoli and two plain
// chicken mains produce five entries with the single side reused
func TestSelect_EndToEnd(t *testing.T) {
	unusedMain := map[string]recipe.Recipe{
		"https://example.com/salmon/":    {Title: "Salmon", Ingredients: []string{"salmon", "broccoli"}},
		"https://example.com/chicken-1/": {Title: "Chicken 1", Ingredients: []string{"chicken"}},
		"https://example.com/chicken-2/": {Title: "Chicken 2", Ingredients: []string{"chicken"}},
	}
	unusedSide := map[string]recipe.Recipe{
		"https://example.com/side/": {Title: "Side", Ingredients: []string{"rice"}},
	}

	entries, err := newTestSelector(5).Select(unusedMain, unusedSide)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	kinds := make([]Kind, len(entries))
	for i, e := range entries {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []Kind{ComboMain, ComboSide, ComboMain, ComboSide, SingleMain}, kinds)
	assert.Equal(t, "https://example.com/side/", entries[1].URL)
	assert.Equal(t, "https://example.com/side/", entries[3].URL)
	assert.Equal(t, "https://example.com/salmon/", entries[4].URL)
	assert.ElementsMatch(t,
		[]string{"https://example.com/chicken-1/", "https://example.com/chicken-2/"},
		[]string{entries[0].URL, entries[2].URL})
}

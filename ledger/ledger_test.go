package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/weeklymeals/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecipe(url string) recipe.Recipe {
	return recipe.Recipe{
		CanonicalURL: url,
		Title:        "Sheet Pan Salmon",
		SiteName:     "Example Kitchen",
		Host:         "example.com",
		Ingredients:  []string{"1 lb salmon", "2 cups broccoli"},
		Instructions: "Roast everything.",
		Image:        "https://example.com/salmon.jpg",
		Yields:       "4 servings",
	}
}

// TestLoad_MissingFile verifies a missing file is created empty
func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "used_recipes.json")

	m, created, err := Load[string](path)
	require.NoError(t, err)
	assert.True(t, created, "should report the file as created")
	assert.Empty(t, m)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "file should exist after load")
	assert.JSONEq(t, "{}", string(data))
}

// TestLoad_EmptyAndCorruptFiles verifies unreadable content never errors
func TestLoad_EmptyAndCorruptFiles(t *testing.T) {
	for name, content := range map[string]string{
		"empty":      "",
		"whitespace": "  \n",
		"corrupt":    `{"https://example.com/a": `,
		"wrong type": `["not", "an", "object"]`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "failed_recipes.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			m, created, err := Load[string](path)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Empty(t, m)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.JSONEq(t, "{}", string(data), "file should be reinitialized")
		})
	}
}

// TestSaveLoad_RoundTrip verifies saved collections load back unchanged
func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	recipes := map[string]recipe.Recipe{
		"https://example.com/a/": sampleRecipe("https://example.com/a/"),
		"https://example.com/b/": sampleRecipe("https://example.com/b/"),
	}
	recipesPath := filepath.Join(dir, UnusedMainsFile)
	require.NoError(t, Save(recipesPath, recipes))

	loaded, created, err := Load[recipe.Recipe](recipesPath)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, recipes, loaded)

	used := map[string]string{"https://example.com/c/": "2024-03-01"}
	usedPath := filepath.Join(dir, UsedFile)
	require.NoError(t, Save(usedPath, used))

	loadedUsed, _, err := Load[string](usedPath)
	require.NoError(t, err)
	assert.Equal(t, used, loadedUsed)
}

// TestSave_Overwrites verifies save replaces prior contents entirely
func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), FailedFile)

	require.NoError(t, Save(path, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, Save(path, map[string]string{"c": "3"}))

	m, _, err := Load[string](path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3"}, m)
}

// TestSave_LeavesNoTempFiles verifies the temp file is renamed away
func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, UsedFile), map[string]string{"a": "2024-01-01"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, UsedFile, entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, UsedFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// TestIsStale_Boundary verifies staleness flips exactly at the threshold
func TestIsStale_Boundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), UnusedMainsFile)
	require.NoError(t, Save(path, map[string]string{}))

	modTime := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	threshold := 12 * time.Hour
	epsilon := time.Second

	assert.False(t, IsStale(path, threshold, modTime.Add(threshold-epsilon)))
	assert.False(t, IsStale(path, threshold, modTime.Add(threshold)))
	assert.True(t, IsStale(path, threshold, modTime.Add(threshold+epsilon)))
}

// TestIsStale_MissingFile verifies a missing file always counts as stale
func TestIsStale_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	assert.True(t, IsStale(path, 12*time.Hour, time.Now()))

	_, ok := Age(path, time.Now())
	assert.False(t, ok)
}

func TestNeedsRefresh(t *testing.T) {
	threshold := 12 * time.Hour

	tests := []struct {
		name         string
		mainsCreated bool
		sidesCreated bool
		mainsAge     time.Duration
		expected     bool
	}{
		{"fresh files", false, false, time.Hour, false},
		{"mains just created", true, false, 0, true},
		{"sides just created", false, true, 0, true},
		{"at threshold", false, false, threshold, false},
		{"past threshold", false, false, threshold + time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NeedsRefresh(tt.mainsCreated, tt.sidesCreated, tt.mainsAge, threshold))
		})
	}
}

// TestOpen_FreshDirectory verifies every collection is created on first open
func TestOpen_FreshDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	l, created, err := Open(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, Created{Mains: true, Sides: true, Used: true, Failed: true}, created)
	assert.Empty(t, l.UnusedMain)
	assert.Empty(t, l.UnusedSide)
	assert.Empty(t, l.Used)
	assert.Empty(t, l.Failed)

	for _, name := range []string{UnusedMainsFile, UnusedSidesFile, UsedFile, FailedFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "%s should exist", name)
	}
}

// TestOpen_DropsMalformedRecipes verifies one bad record keeps the rest
func TestOpen_DropsMalformedRecipes(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "https://example.com/good/": {"title": "Good", "site_name": "S", "host": "example.com",
    "ingredients": ["chicken"], "instructions": "Cook.", "image": "https://example.com/i.jpg"},
  "https://example.com/bad/": {"title": "Bad", "ingredients": "not a list"}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, UnusedMainsFile), []byte(content), 0o600))

	l, created, err := Open(dir, nil)
	require.NoError(t, err)
	assert.False(t, created.Mains)
	require.Len(t, l.UnusedMain, 1)
	assert.Contains(t, l.UnusedMain, "https://example.com/good/")
}

// TestLedger_SaveAllAndReopen verifies checkpoints persist every collection
func TestLedger_SaveAllAndReopen(t *testing.T) {
	dir := t.TempDir()

	l, _, err := Open(dir, nil)
	require.NoError(t, err)

	l.UnusedMain["https://example.com/main/"] = sampleRecipe("https://example.com/main/")
	l.UnusedSide["https://example.com/side/"] = sampleRecipe("https://example.com/side/")
	l.Used["https://example.com/old/"] = "2024-01-01"
	l.Failed["https://example.com/broken/"] = "FAILS due to: Ingredients list empty"
	require.NoError(t, l.SaveAll())

	reopened, created, err := Open(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, Created{}, created)
	assert.Equal(t, l.UnusedMain, reopened.UnusedMain)
	assert.Equal(t, l.UnusedSide, reopened.UnusedSide)
	assert.Equal(t, l.Used, reopened.Used)
	assert.Equal(t, l.Failed, reopened.Failed)
}

// TestEmpty_CannotSave verifies a debug ledger never touches disk
func TestEmpty_CannotSave(t *testing.T) {
	l := Empty()
	assert.Error(t, l.SaveUnused())
	assert.Error(t, l.SaveFailed())
	assert.Error(t, l.SaveAll())
	assert.Equal(t, "", l.Dir())
}

func TestLedger_Knows(t *testing.T) {
	l := Empty()
	l.UnusedMain["m"] = sampleRecipe("m")
	l.UnusedSide["s"] = sampleRecipe("s")
	l.Used["u"] = "2024-01-01"
	l.Failed["f"] = "reason"

	for _, url := range []string{"m", "s", "u", "f"} {
		assert.True(t, l.Knows(url), url)
	}
	assert.False(t, l.Knows("unknown"))
}

func TestLedger_MarkUsed(t *testing.T) {
	l := Empty()
	l.UnusedMain["m"] = sampleRecipe("m")
	l.UnusedSide["s"] = sampleRecipe("s")

	assert.True(t, l.MarkUsed("m", "2024-06-01"))
	assert.True(t, l.MarkUsed("s", "2024-06-01"))
	assert.False(t, l.MarkUsed("s", "2024-06-01"), "already moved")
	assert.False(t, l.MarkUsed("missing", "2024-06-01"))

	assert.Empty(t, l.UnusedMain)
	assert.Empty(t, l.UnusedSide)
	assert.Equal(t, map[string]string{"m": "2024-06-01", "s": "2024-06-01"}, l.Used)
	assert.NoError(t, l.CheckDisjoint())
}

func TestLedger_CheckDisjoint(t *testing.T) {
	l := Empty()
	l.UnusedMain["a"] = sampleRecipe("a")
	l.Used["b"] = "2024-01-01"
	assert.NoError(t, l.CheckDisjoint())

	l.Failed["a"] = "reason"
	err := l.CheckDisjoint()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a is in both unused_main and failed")
}

package ledger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// Load reads a JSON object of URL-keyed values from path. A missing, empty,
// or unparsable file is not an error: Load rewrites it as an empty object
// and reports created=true. Only a failure to create the replacement file
// is returned as an error.
func Load[V any](path string) (map[string]V, bool, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var m map[string]V
		if len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &m) == nil {
			if m == nil {
				m = map[string]V{}
			}
			return m, false, nil
		}
	} else if !os.IsNotExist(err) {
		return nil, false, eris.Wrapf(err, "failed to read %s", path)
	}

	empty := map[string]V{}
	if err := Save(path, empty); err != nil {
		return nil, false, err
	}
	return empty, true, nil
}

// Save overwrites path with m encoded as indented JSON. The data is written
// to a temporary file in the same directory and renamed into place, so a
// crash mid-write leaves the previous version intact.
func Save[V any](path string, m map[string]V) error {
	if m == nil {
		m = map[string]V{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "failed to marshal %s", filepath.Base(path))
	}

	dir := filepath.Dir(path)
	// 0700: owner-only access
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return eris.Wrap(err, "failed to create ledger directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "failed to write %s", filepath.Base(path))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "failed to sync %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "failed to close %s", filepath.Base(path))
	}
	// 0600: owner-only read/write
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return eris.Wrapf(err, "failed to chmod %s", filepath.Base(path))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "failed to replace %s", filepath.Base(path))
	}

	return nil
}

// Age returns how long ago path was last modified. The boolean is false if
// the file does not exist.
func Age(path string, now time.Time) (time.Duration, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}

// IsStale reports whether path is missing or was last modified more than
// threshold before now.
func IsStale(path string, threshold time.Duration, now time.Time) bool {
	age, ok := Age(path, now)
	if !ok {
		return true
	}
	return age > threshold
}

// NeedsRefresh decides whether acquisition should run this cycle: either
// recipe file was just created, or the mains file is older than threshold.
func NeedsRefresh(mainsCreated, sidesCreated bool, mainsAge, threshold time.Duration) bool {
	return mainsCreated || sidesCreated || mainsAge > threshold
}

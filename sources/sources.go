package sources

import (
	"os"
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Discovery modes for a descriptor's listing pages.
const (
	// DiscoveryPattern runs the descriptor's pattern over the listing HTML.
	DiscoveryPattern = "pattern"
	// DiscoveryFeed treats the listing URLs as RSS or Atom feeds and uses the
	// item links as candidates.
	DiscoveryFeed = "feed"
)

// Custom errors for registry operations
var (
	ErrUnknownSource  = eris.New("source not found")
	ErrEmptyRegistry  = eris.New("source registry is empty")
	ErrInvalidPattern = eris.New("pattern must compile and have a capture group")
)

// Descriptor describes how to find recipe links on one external site.
type Descriptor struct {
	Name       string `yaml:"name" json:"name"`
	Discovery  string `yaml:"discovery,omitempty" json:"discovery,omitempty"`
	Pattern    string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Skip       string `yaml:"skip,omitempty" json:"skip,omitempty"` // drop pattern matches whose text matches this
	MainCourse string `yaml:"main_course" json:"main_course"`
	SideDish   string `yaml:"side_dish" json:"side_dish"`
}

// Mode returns the discovery mode, defaulting to DiscoveryPattern.
func (d Descriptor) Mode() string {
	if d.Discovery == "" {
		return DiscoveryPattern
	}
	return d.Discovery
}

// Regexp compiles the descriptor's link pattern.
func (d Descriptor) Regexp() (*regexp.Regexp, error) {
	re, err := regexp.Compile(d.Pattern)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidPattern, "%s: %v", d.Name, err)
	}
	if re.NumSubexp() < 1 {
		return nil, eris.Wrapf(ErrInvalidPattern, "%s: no capture group", d.Name)
	}
	return re, nil
}

// SkipRegexp compiles the descriptor's skip pattern. It returns nil when the
// descriptor has none.
func (d Descriptor) SkipRegexp() (*regexp.Regexp, error) {
	if d.Skip == "" {
		return nil, nil
	}
	re, err := regexp.Compile(d.Skip)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidPattern, "%s: skip: %v", d.Name, err)
	}
	return re, nil
}

// Validate checks that the descriptor can be used for discovery.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return eris.New("source name is required")
	}
	if d.MainCourse == "" || d.SideDish == "" {
		return eris.Errorf("%s: main_course and side_dish are required", d.Name)
	}
	switch d.Mode() {
	case DiscoveryPattern:
		if _, err := d.Regexp(); err != nil {
			return err
		}
		_, err := d.SkipRegexp()
		return err
	case DiscoveryFeed:
		return nil
	default:
		return eris.Errorf("%s: discovery must be %q or %q", d.Name, DiscoveryPattern, DiscoveryFeed)
	}
}

// Registry maps a site name to its descriptor.
type Registry map[string]Descriptor

// Names returns the registry's site names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every descriptor in the registry.
func (r Registry) Validate() error {
	if len(r) == 0 {
		return ErrEmptyRegistry
	}
	for _, name := range r.Names() {
		if err := r[name].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Only returns a registry holding just the named site.
func (r Registry) Only(name string) (Registry, error) {
	d, ok := r[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSource, "%q", name)
	}
	return Registry{name: d}, nil
}

// fileFormat is the layout of a sources YAML file.
type fileFormat struct {
	Replace bool         `yaml:"replace"`
	Sources []Descriptor `yaml:"sources"`
}

// LoadFile reads descriptors from a YAML file and merges them over base.
// When the file sets "replace: true" base is ignored entirely. A missing
// file returns base unchanged.
func LoadFile(path string, base Registry) (Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "failed to read sources file")
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "failed to parse sources file")
	}

	merged := Registry{}
	if !f.Replace {
		for name, d := range base {
			merged[name] = d
		}
	}
	for _, d := range f.Sources {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		merged[d.Name] = d
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

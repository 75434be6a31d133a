package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional file inside the roster directory that
// overrides display names or excludes reference images.
const ManifestFile = "roster.yaml"

// Manifest is the parsed roster.yaml.
//
//	identities:
//	  - file: alice.jpg
//	    name: Alice
//	  - file: old-badge.png
//	    skip: true
type Manifest struct {
	Identities []ManifestEntry `yaml:"identities"`
}

// ManifestEntry describes one reference image.
type ManifestEntry struct {
	File string `yaml:"file"`
	Name string `yaml:"name"`
	Skip bool   `yaml:"skip"`
}

// LoadManifest reads roster.yaml from dir. A missing file is not an error
// and yields an empty manifest.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) //nolint:gosec // roster dir is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading roster manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing roster manifest: %w", err)
	}
	return &m, nil
}

// Lookup returns the entry for a reference image file, matching on the
// normalized file stem so "Jiří.jpg" and "jiri.jpg" resolve to the same entry.
func (m *Manifest) Lookup(file string) (ManifestEntry, bool) {
	key := NormalizeName(NameFromFile(file))
	for _, e := range m.Identities {
		if NormalizeName(NameFromFile(e.File)) == key {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

package cache

import "path/filepath"

// Keyer generates cache keys for each entry kind.
type Keyer interface {
	// ManifestKey identifies the manifest published at baseURL.
	ManifestKey(baseURL, typesFile string) string

	// StateKey identifies the install state of one install directory.
	StateKey(installDir string) string
}

// DefaultKeyer hashes key components so keys are safe for every backend.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ManifestKey returns "manifest:<hash(baseURL, typesFile)>".
func (DefaultKeyer) ManifestKey(baseURL, typesFile string) string {
	return hashKey("manifest", baseURL, typesFile)
}

// StateKey returns "state:<hash(abs(installDir))>". Relative directories
// are resolved so the same tree always maps to the same key.
func (DefaultKeyer) StateKey(installDir string) string {
	if abs, err := filepath.Abs(installDir); err == nil {
		installDir = abs
	}
	return hashKey("state", filepath.ToSlash(installDir))
}

var _ Keyer = DefaultKeyer{}

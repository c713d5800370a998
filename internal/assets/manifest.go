package assets

import (
	"fmt"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Manifest maps site asset paths ("/stylesheets/site.css") to content hashes.
type Manifest struct {
	hashes map[string]string
}

// NewManifest returns an empty manifest. Resolve on an empty manifest is the identity.
func NewManifest() *Manifest {
	return &Manifest{hashes: map[string]string{}}
}

// Hash is the short fingerprint used in cache-busting query strings.
func Hash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))[:8]
}

// Add records content for the site path p.
func (m *Manifest) Add(p string, content []byte) {
	m.hashes[cleanSitePath(p)] = Hash(content)
}

// Lookup returns the hash for p.
func (m *Manifest) Lookup(p string) (string, bool) {
	if m == nil {
		return "", false
	}
	h, ok := m.hashes[cleanSitePath(p)]
	return h, ok
}

// Resolve appends "?{hash}" to a known asset path. Unknown paths, and paths
// that already carry a query, come back unchanged.
func (m *Manifest) Resolve(p string) string {
	if strings.ContainsAny(p, "?#") {
		return p
	}
	if h, ok := m.Lookup(p); ok {
		return p + "?" + h
	}
	return p
}

// Len is the number of fingerprinted assets.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.hashes)
}

func cleanSitePath(p string) string {
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

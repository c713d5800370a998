// Package sitemap records which output paths the build produces from which templates.
package sitemap

import (
	"log/slog"
	"path"
	"strings"

	"github.com/dfid/devtracker-site/internal/logfields"
	"github.com/dfid/devtracker-site/internal/util/sets"
)

// Locals are the per-page template variables of a proxy.
type Locals map[string]any

// Proxy binds an output path to a shared template and its locals.
type Proxy struct {
	Path     string
	Template string
	Locals   Locals
}

// Sitemap holds proxy registrations and ignored template paths.
// Registering a path twice keeps the position of the first registration and
// the template and locals of the last.
type Sitemap struct {
	proxies []Proxy
	index   map[string]int
	ignored sets.Set[string]
}

// New returns an empty sitemap.
func New() *Sitemap {
	return &Sitemap{index: map[string]int{}, ignored: sets.New[string]()}
}

// Normalize cleans p and forces a leading slash.
func Normalize(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	return path.Clean("/" + p)
}

// Ignore marks a template path so it is never rendered as a page of its own.
func (s *Sitemap) Ignore(p string) {
	s.ignored.Add(Normalize(p))
}

// IsIgnored reports whether p was passed to Ignore.
func (s *Sitemap) IsIgnored(p string) bool {
	return s.ignored.Has(Normalize(p))
}

// Ignored returns the ignored template paths in sorted order.
func (s *Sitemap) Ignored() []string {
	return sets.Sorted(s.ignored)
}

// Proxy registers output path p rendered from template with locals.
func (s *Sitemap) Proxy(p, template string, locals Locals) {
	p = Normalize(p)
	entry := Proxy{Path: p, Template: Normalize(template), Locals: locals}
	if i, ok := s.index[p]; ok {
		slog.Debug("Proxy replaced",
			logfields.Path(p),
			slog.String("previous_template", s.proxies[i].Template),
			logfields.Template(entry.Template))
		s.proxies[i] = entry
		return
	}
	s.index[p] = len(s.proxies)
	s.proxies = append(s.proxies, entry)
}

// Lookup returns the proxy registered for p.
func (s *Sitemap) Lookup(p string) (Proxy, bool) {
	i, ok := s.index[Normalize(p)]
	if !ok {
		return Proxy{}, false
	}
	return s.proxies[i], true
}

// Resources returns the proxies in registration order.
func (s *Sitemap) Resources() []Proxy {
	out := make([]Proxy, len(s.proxies))
	copy(out, s.proxies)
	return out
}

// Len returns the number of registered proxies.
func (s *Sitemap) Len() int { return len(s.proxies) }

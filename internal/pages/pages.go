// Package pages turns content records into proxy pages.
//
// Rules run in order (countries, projects, funded projects) and register
// output paths on a sitemap. A funded project whose id matches a project
// replaces that project's pages.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/logfields"
	"github.com/dfid/devtracker-site/internal/sitemap"
	"github.com/dfid/devtracker-site/internal/store"
)

// Template paths rendered once per record. They are ignored as standalone pages.
const (
	CountryTemplate          = "/countries/country.html"
	CountryProjectsTemplate  = "/countries/projects.html"
	ProjectSummaryTemplate   = "/projects/summary.html"
	ProjectDocumentsTemplate = "/projects/documents.html"
	ProjectTransactTemplate  = "/projects/transactions.html"
	ProjectPartnersTemplate  = "/projects/partners.html"
)

// ProxyTemplates lists every template that only renders through a proxy.
var ProxyTemplates = []string{
	CountryTemplate,
	CountryProjectsTemplate,
	ProjectSummaryTemplate,
	ProjectDocumentsTemplate,
	ProjectTransactTemplate,
	ProjectPartnersTemplate,
}

// Local names shared with the templates.
const (
	LocalCountry           = "country"
	LocalStats             = "stats"
	LocalProject           = "project"
	LocalHasFundedProjects = "has_funded_projects"
	LocalDocuments         = "documents"
	LocalFundedProjects    = "funded_projects"
	LocalFundingProject    = "funding_project"
)

// Rule registers the proxies for one record type.
type Rule struct {
	Name  string
	Apply func(ctx context.Context, st store.Store, sm *sitemap.Sitemap) error
}

// DefaultRules returns the country, project and funded project rules in order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "countries", Apply: MapCountries},
		{Name: "projects", Apply: MapProjects},
		{Name: "funded-projects", Apply: MapFundedProjects},
	}
}

// Mapper applies rules against a store.
type Mapper struct {
	store  store.Store
	rules  []Rule
	ignore []string
}

// NewMapper returns a mapper with the default rules. extraIgnore adds template
// paths to the built-in ignore list.
func NewMapper(st store.Store, extraIgnore ...string) *Mapper {
	return &Mapper{store: st, rules: DefaultRules(), ignore: extraIgnore}
}

// WithRules replaces the rule list.
func (m *Mapper) WithRules(rules ...Rule) *Mapper {
	m.rules = rules
	return m
}

// Map builds a sitemap from the store.
func (m *Mapper) Map(ctx context.Context) (*sitemap.Sitemap, error) {
	sm := sitemap.New()
	for _, t := range ProxyTemplates {
		sm.Ignore(t)
	}
	for _, t := range m.ignore {
		sm.Ignore(t)
	}
	for _, rule := range m.rules {
		start := time.Now()
		before := sm.Len()
		if err := rule.Apply(ctx, m.store, sm); err != nil {
			return nil, fmt.Errorf("map %s: %w", rule.Name, err)
		}
		slog.Debug("Mapping rule applied",
			slog.String("rule", rule.Name),
			logfields.Count(sm.Len()-before),
			logfields.Duration(time.Since(start)))
	}
	return sm, nil
}

// recordID returns doc[field] for use as one output path segment. Empty ids,
// "." and "..", and ids containing a path separator are rejected, since they
// would land on another page.
func recordID(doc store.Document, collection, field string) (string, error) {
	id := doc.String(field)
	if strings.TrimSpace(id) == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", foundation.ValidationError(fmt.Sprintf("%s record has unusable %s %q", collection, field, id)).
			WithContext("collection", collection).
			WithContext("field", field).
			WithContext("id", id).
			Build()
	}
	return id, nil
}

package pages

import (
	"context"

	"github.com/dfid/devtracker-site/internal/sitemap"
	"github.com/dfid/devtracker-site/internal/store"
)

// MapCountries registers the country summary and country projects pages.
// The stats local is nil when country-stats has no record for the code.
func MapCountries(ctx context.Context, st store.Store, sm *sitemap.Sitemap) error {
	countries, err := st.Find(ctx, store.Countries, store.All)
	if err != nil {
		return err
	}
	for _, country := range countries {
		code, err := recordID(country, store.Countries, "code")
		if err != nil {
			return err
		}
		stats, err := st.FindOne(ctx, store.CountryStats, store.Where(store.Eq("code", country["code"])))
		if err != nil {
			return err
		}

		sm.Proxy(CountryPath(code), CountryTemplate, sitemap.Locals{
			LocalCountry: country,
			LocalStats:   stats,
		})
		sm.Proxy(CountryProjectsPath(code), CountryProjectsTemplate, sitemap.Locals{
			LocalCountry: country,
		})
	}
	return nil
}

// CountryPath is the output path of a country page.
func CountryPath(code string) string { return "/countries/" + code + "/index.html" }

// CountryProjectsPath is the output path of a country's project list.
func CountryProjectsPath(code string) string {
	return "/countries/" + code + "/projects/index.html"
}

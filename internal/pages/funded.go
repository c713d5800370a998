package pages

import (
	"context"

	"github.com/dfid/devtracker-site/internal/sitemap"
	"github.com/dfid/devtracker-site/internal/store"
)

// FundedAsProject reshapes a funded-projects record so the project templates can render it.
func FundedAsProject(fp store.Document) store.Document {
	return store.Document{
		"iatiId":      fp["funded"],
		"title":       fp["title"],
		"description": fp["description"],
		"funds":       fp["funds"],
	}
}

// MapFundedProjects registers the four project pages of every funded project.
// The partners page lists the other projects funded by the same parent and
// links back to the parent (nil when the parent is not in projects).
func MapFundedProjects(ctx context.Context, st store.Store, sm *sitemap.Sitemap) error {
	fundedProjects, err := st.Find(ctx, store.FundedProjects, store.All)
	if err != nil {
		return err
	}
	for _, fp := range fundedProjects {
		project := FundedAsProject(fp)
		id, err := recordID(fp, store.FundedProjects, "funded")
		if err != nil {
			return err
		}

		siblings, err := st.Find(ctx, store.FundedProjects, store.Where(
			store.Eq("funding", fp["funding"]),
			store.Ne("funded", fp["funded"]),
		))
		if err != nil {
			return err
		}
		parent, err := st.FindOne(ctx, store.Projects, store.Where(store.Eq("iatiId", fp["funding"])))
		if err != nil {
			return err
		}

		sm.Proxy(ProjectPath(id), ProjectSummaryTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: true,
		})
		sm.Proxy(DocumentsPath(id), ProjectDocumentsTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: true,
		})
		sm.Proxy(TransactionsPath(id), ProjectTransactTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: true,
		})
		sm.Proxy(PartnersPath(id), ProjectPartnersTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: true,
			LocalFundedProjects:    siblings,
			LocalFundingProject:    parent,
		})
	}
	return nil
}

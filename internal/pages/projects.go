package pages

import (
	"context"

	"github.com/dfid/devtracker-site/internal/sitemap"
	"github.com/dfid/devtracker-site/internal/store"
)

// MapProjects registers the summary, documents and transactions pages of each
// project, plus a partners page when the project funds other projects.
func MapProjects(ctx context.Context, st store.Store, sm *sitemap.Sitemap) error {
	projects, err := st.Find(ctx, store.Projects, store.All)
	if err != nil {
		return err
	}
	for _, project := range projects {
		id, err := recordID(project, store.Projects, "iatiId")
		if err != nil {
			return err
		}

		documents, err := st.Find(ctx, store.Documents, store.Where(store.Eq("project", project["iatiId"])))
		if err != nil {
			return err
		}
		funded, err := st.Find(ctx, store.FundedProjects, store.Where(store.Eq("funding", project["iatiId"])))
		if err != nil {
			return err
		}
		hasFunded := len(funded) > 0

		sm.Proxy(ProjectPath(id), ProjectSummaryTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: hasFunded,
		})
		sm.Proxy(DocumentsPath(id), ProjectDocumentsTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: hasFunded,
			LocalDocuments:         documents,
		})
		sm.Proxy(TransactionsPath(id), ProjectTransactTemplate, sitemap.Locals{
			LocalProject:           project,
			LocalHasFundedProjects: hasFunded,
		})
		if hasFunded {
			sm.Proxy(PartnersPath(id), ProjectPartnersTemplate, sitemap.Locals{
				LocalProject:        project,
				LocalFundedProjects: funded,
			})
		}
	}
	return nil
}

// ProjectPath is the output path of a project summary page.
func ProjectPath(id string) string { return "/projects/" + id + "/index.html" }

// DocumentsPath is the output path of a project's document list.
func DocumentsPath(id string) string { return "/projects/" + id + "/documents/index.html" }

// TransactionsPath is the output path of a project's transactions page.
func TransactionsPath(id string) string { return "/projects/" + id + "/transactions/index.html" }

// PartnersPath is the output path of a project's partners page.
func PartnersPath(id string) string { return "/projects/" + id + "/partners/index.html" }

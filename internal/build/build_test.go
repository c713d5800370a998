package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfid/devtracker-site/internal/assets"
	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/metrics"
	"github.com/dfid/devtracker-site/internal/store"
)

const siteCSS = "body {\n  margin : 0px;\n  color : #ffffff;\n}\n"

var sourceFiles = map[string]string{
	"layouts/layout.html":        `<html><head><link rel="stylesheet" href="{{stylesheetPath "site"}}"></head><body>{{.content}}</body></html>`,
	"index.html":                 `<h1>{{.site.Title}}</h1><img src="/images/logo.png">{{range .data.regions}}<li>{{.}}</li>{{end}}`,
	"about/index.html":           `<p>About {{.page.Path}}</p>`,
	"about/draft.html":           `<p>draft</p>`,
	"countries/country.html":     `<h1>{{countryName .country.code}}</h1>{{if .stats}}{{formatMoney .stats.totalBudget}}{{else}}no stats{{end}}`,
	"countries/projects.html":    `<h1>{{.country.name}} projects</h1>`,
	"projects/summary.html":      `<h1>{{.project.title}}</h1>{{if .has_funded_projects}}<a href="{{partnersPath .project.iatiId}}">partners</a>{{end}}`,
	"projects/documents.html":    `{{range .documents}}{{.title}};{{end}}`,
	"projects/transactions.html": `{{.project.iatiId}}`,
	"projects/partners.html":     `{{range .funded_projects}}{{.funded}};{{end}}`,
	"stylesheets/site.css":       siteCSS,
	"images/logo.png":            "png",
	"data/regions.yml":           "- West Africa\n- South Asia\n",
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewFixtureStore(map[string][]store.Document{
		store.Countries:    {{"code": "AF", "name": "Afghanistan"}, {"code": "BD", "name": "Bangladesh"}},
		store.CountryStats: {{"code": "AF", "totalBudget": 120000000}},
		store.Projects: {
			{"iatiId": "GB-1-100", "title": "Health Systems"},
			{"iatiId": "GB-1-200", "title": "Education Access"},
		},
		store.Documents:      {{"project": "GB-1-100", "title": "Business Case"}},
		store.FundedProjects: {{"funding": "GB-1-100", "funded": "NGO-A-1", "title": "Clinic Support"}},
	})
	require.NoError(t, err)
	return st
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Site.Title = "Development Tracker"
	cfg.Source.Directory = filepath.Join(root, "source")
	cfg.Source.Ignore = []string{"/about/draft.html"}
	cfg.Output.Directory = filepath.Join(root, "build")
	writeTree(t, cfg.Source.Directory, sourceFiles)
	return cfg
}

func readOut(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(cfg.Output.Directory, filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return string(b)
}

func assertMissing(t *testing.T, cfg *config.Config, rel string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(cfg.Output.Directory, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err), "%s should not exist", rel)
}

type spyRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []string
	pages    map[metrics.PageKind]int
	assets   int
}

func newSpy() *spyRecorder {
	return &spyRecorder{stages: map[string]metrics.ResultLabel{}, pages: map[metrics.PageKind]int{}}
}

func (s *spyRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage] = r
}

func (s *spyRecorder) IncBuildOutcome(o string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

func (s *spyRecorder) AddPagesRendered(kind metrics.PageKind, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[kind] += n
}

func (s *spyRecorder) AddAssetsWritten(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets += n
}

type notifierFunc func(ctx context.Context, r *Report) error

func (f notifierFunc) BuildCompleted(ctx context.Context, r *Report) error { return f(ctx, r) }

func TestRunBuildMode(t *testing.T) {
	cfg := testConfig(t)
	spy := newSpy()
	var notified *Report

	report, err := NewBuilder(testStore(t)).
		WithRecorder(spy).
		WithNotifier(notifierFunc(func(_ context.Context, r *Report) error {
			notified = r
			return nil
		})).
		Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, ModeBuild, report.Mode)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, 2, report.RegularPages)
	assert.Equal(t, 15, report.ProxyPages)
	assert.Equal(t, 2, report.Assets)
	assert.Equal(t, 1, report.MinifiedAssets)
	assert.Greater(t, report.RewrittenPages, 0)
	assert.Same(t, report, notified)
	for _, s := range []string{StagePrepare, StageLoadData, StageMapPages, StageCopyAssets, StageRenderPages, StageRewriteHTML, StagePromote} {
		assert.Equal(t, metrics.ResultSuccess, spy.stages[s], s)
		assert.Contains(t, report.StageDurations, s)
	}
	assert.Equal(t, []string{metrics.BuildOutcomeSuccess}, spy.outcomes)
	assert.Equal(t, 2, spy.pages[metrics.PageRegular])
	assert.Equal(t, 15, spy.pages[metrics.PageProxy])
	assert.Equal(t, 2, spy.assets)

	css := readOut(t, cfg, "stylesheets/site.css")
	assert.Less(t, len(css), len(siteCSS))
	cssHash := assets.Hash([]byte(css))
	pngHash := assets.Hash([]byte("png"))

	index := readOut(t, cfg, "index.html")
	assert.Contains(t, index, `href="/stylesheets/site.css?`+cssHash+`"`)
	assert.Contains(t, index, `src="/images/logo.png?`+pngHash+`"`)
	assert.Contains(t, index, "<h1>Development Tracker</h1>")
	assert.Contains(t, index, "<li>West Africa</li><li>South Asia</li>")
	assert.Contains(t, readOut(t, cfg, "about/index.html"), "About /about/index.html")

	assert.Contains(t, readOut(t, cfg, "countries/AF/index.html"), "£120,000,000")
	assert.Contains(t, readOut(t, cfg, "countries/BD/index.html"), "no stats")
	assert.Contains(t, readOut(t, cfg, "countries/BD/projects/index.html"), "Bangladesh projects")
	assert.Contains(t, readOut(t, cfg, "projects/GB-1-100/index.html"), `href="/projects/GB-1-100/partners/"`)
	assert.Contains(t, readOut(t, cfg, "projects/GB-1-100/documents/index.html"), "Business Case;")
	assert.Contains(t, readOut(t, cfg, "projects/GB-1-100/partners/index.html"), "NGO-A-1;")
	assert.Contains(t, readOut(t, cfg, "projects/NGO-A-1/index.html"), "Clinic Support")
	assert.NotContains(t, readOut(t, cfg, "projects/GB-1-200/index.html"), "partners")
	assertMissing(t, cfg, "projects/GB-1-200/partners/index.html")

	assertMissing(t, cfg, "about/draft.html")
	assertMissing(t, cfg, "countries/country.html")
	assertMissing(t, cfg, "projects/summary.html")
	assertMissing(t, cfg, "layouts/layout.html")
	assertMissing(t, cfg, "data/regions.yml")

	persisted, err := ReadReport(cfg.Output.Directory)
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, persisted.BuildID)
	assert.Equal(t, StatusSuccess, persisted.Status)
	assert.Equal(t, 15, persisted.ProxyPages)
}

func TestRunDevelopmentModeSkipsOptimizations(t *testing.T) {
	cfg := testConfig(t)

	report, err := NewBuilder(testStore(t)).Run(context.Background(), Request{Config: cfg, Mode: ModeDevelopment})
	require.NoError(t, err)

	assert.Equal(t, ModeDevelopment, report.Mode)
	assert.Zero(t, report.MinifiedAssets)
	assert.Zero(t, report.RewrittenPages)
	assert.Equal(t, siteCSS, readOut(t, cfg, "stylesheets/site.css"))
	index := readOut(t, cfg, "index.html")
	assert.Contains(t, index, `href="/stylesheets/site.css"`)
	assert.Contains(t, index, `src="/images/logo.png"`)
}

func TestRunMissingTemplateKeepsPreviousOutput(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewBuilder(testStore(t)).Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)
	before := readOut(t, cfg, "index.html")

	require.NoError(t, os.Remove(filepath.Join(cfg.Source.Directory, "projects", "partners.html")))
	spy := newSpy()
	report, err := NewBuilder(testStore(t)).WithRecorder(spy).Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryBuild))
	assert.Contains(t, err.Error(), "/projects/GB-1-100/partners/index.html")
	assert.Equal(t, StatusFailed, report.Status)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, metrics.ResultFatal, spy.stages[StageRenderPages])
	assert.Equal(t, []string{metrics.BuildOutcomeFailed}, spy.outcomes)

	assert.Equal(t, before, readOut(t, cfg, "index.html"))
	entries, err := os.ReadDir(filepath.Dir(cfg.Output.Directory))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), "staging"), "staging dir left behind: %s", e.Name())
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spy := newSpy()
	report, err := NewBuilder(testStore(t)).WithRecorder(spy).Run(ctx, Request{Config: cfg})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.Equal(t, metrics.ResultCanceled, spy.stages[StagePrepare])
	assert.Equal(t, []string{metrics.BuildOutcomeCanceled}, spy.outcomes)
	assertMissing(t, cfg, "index.html")
}

func TestRunWithoutConfig(t *testing.T) {
	_, err := NewBuilder(testStore(t)).Run(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryConfig))
}

func TestRunKeepsUnmanagedFilesWhenNotCleaning(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Clean = false
	writeTree(t, cfg.Output.Directory, map[string]string{"legacy/page.html": "legacy"})

	_, err := NewBuilder(testStore(t)).Run(context.Background(), Request{Config: cfg, Mode: ModeDevelopment})
	require.NoError(t, err)
	assert.Equal(t, "legacy", readOut(t, cfg, "legacy/page.html"))

	cfg.Output.Clean = true
	_, err = NewBuilder(testStore(t)).Run(context.Background(), Request{Config: cfg, Mode: ModeDevelopment})
	require.NoError(t, err)
	assertMissing(t, cfg, "legacy/page.html")
}

func TestRoutes(t *testing.T) {
	cfg := testConfig(t)
	sm, err := NewBuilder(testStore(t)).Routes(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 15, sm.Len())
	assert.True(t, sm.IsIgnored("/about/draft.html"))
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"regions.yml":  "- West Africa\n",
		"sectors.json": `{"health": {"code": 121}}`,
		"notes.txt":    "skipped",
	})
	data, err := LoadData(dir)
	require.NoError(t, err)
	assert.Equal(t, []any{"West Africa"}, data["regions"])
	assert.Equal(t, map[string]any{"health": map[string]any{"code": 121}}, data["sectors"])
	assert.NotContains(t, data, "notes")

	empty, err := LoadData(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	writeTree(t, dir, map[string]string{"regions.json": `[]`})
	_, err = LoadData(dir)
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryValidation))
}

func TestReportSummary(t *testing.T) {
	r := newReport("id", ModeBuild, "build")
	r.RegularPages, r.ProxyPages, r.Assets = 2, 3, 4
	r.finish(StatusSuccess, nil)
	r.Duration = 1500 * time.Millisecond
	assert.Equal(t, "build build success: 5 pages (3 proxy), 4 assets in 1.5s", r.Summary())
}

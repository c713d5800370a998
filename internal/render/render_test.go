package render

import (
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return dir
}

func TestRenderWithLayoutAndPartials(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"layouts/layout.html":    `<html><title>{{.site.Title}}</title>{{template "partials/_nav.html" .}}<main>{{.content}}</main></html>`,
		"partials/_nav.html":     `<nav>{{.page.Path}}</nav>`,
		"countries/country.html": `<h1>{{upper .country.name}}</h1><p>{{.data.regions.west}}</p>`,
	})
	r, err := New(Options{
		SourceDir: dir,
		Layout:    "layouts/layout.html",
		Funcs:     template.FuncMap{"upper": strings.ToUpper},
		Site:      Site{Title: "Development Tracker"},
		Data:      map[string]any{"regions": map[string]any{"west": "West Africa"}},
	})
	require.NoError(t, err)
	assert.True(t, r.HasLayout())

	out, err := r.Render("/countries/GH/index.html", "/countries/country.html", map[string]any{
		"country": map[string]any{"name": "Ghana"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<html><title>Development Tracker</title><nav>/countries/GH/index.html</nav><main><h1>GHANA</h1><p>West Africa</p></main></html>`,
		string(out))

	out, err = r.Render("/countries/KE/index.html", "countries/country.html", map[string]any{
		"country": map[string]any{"name": "Kenya"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>KENYA</h1>")
}

func TestRenderWithoutLayout(t *testing.T) {
	dir := writeSource(t, map[string]string{"index.html": `<p>{{.page.Template}}</p>`})
	r, err := New(Options{SourceDir: dir, Layout: "layouts/layout.html"})
	require.NoError(t, err)
	assert.False(t, r.HasLayout())

	out, err := r.Render("/index.html", "/index.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>/index.html</p>", string(out))
}

func TestRenderEscapesLocals(t *testing.T) {
	dir := writeSource(t, map[string]string{"p.html": `<p>{{.title}}</p>`})
	r, err := New(Options{SourceDir: dir})
	require.NoError(t, err)

	out, err := r.Render("/p.html", "/p.html", map[string]any{"title": "<b>x</b>"})
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;x&lt;/b&gt;</p>", string(out))
}

func TestRenderMissingTemplateIsBuildError(t *testing.T) {
	r, err := New(Options{SourceDir: writeSource(t, nil)})
	require.NoError(t, err)

	_, err = r.Render("/projects/GB-1/index.html", "/projects/summary.html", nil)
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryBuild))
	assert.Contains(t, err.Error(), "/projects/GB-1/index.html")
}

func TestRenderExecutionErrorIsRenderError(t *testing.T) {
	dir := writeSource(t, map[string]string{"p.html": `{{template "missing" .}}`})
	r, err := New(Options{SourceDir: dir})
	require.NoError(t, err)

	_, err = r.Render("/p.html", "/p.html", nil)
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryRender))
}

func TestParseErrorInPartial(t *testing.T) {
	dir := writeSource(t, map[string]string{"_broken.html": `{{if}}`})
	_, err := New(Options{SourceDir: dir})
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryRender))
}

func TestDiscover(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"index.html":             "",
		"about/index.html":       "",
		"about/draft.html":       "",
		"_footer.html":           "",
		"layouts/layout.html":    "",
		"stylesheets/x.html":     "",
		"data/regions.yml":       "",
		"countries/country.html": "",
		"robots.txt":             "",
		".git/hooks/sample.html": "",
	})
	pages, err := Discover(DiscoverOptions{
		SourceDir: dir,
		SkipDirs:  []string{"layouts", "stylesheets", "data/"},
		Ignored: func(p string) bool {
			return p == "/countries/country.html" || p == "/about/draft.html"
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/about/index.html", "/index.html"}, pages)
}

func TestWriteFile(t *testing.T) {
	out := t.TempDir()
	full, err := WriteFile(out, "/projects/GB-1/index.html", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "projects", "GB-1", "index.html"), full)
	got, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))

	_, err = WriteFile(out, "/projects/GB-1/index.html", []byte("again"))
	require.NoError(t, err)

	for _, bad := range []string{"", "/", "../escape.html", "/../../escape.html"} {
		_, err := WriteFile(out, bad, []byte("x"))
		assert.Error(t, err, bad)
	}
	_, err = WriteFile("", "/a.html", nil)
	assert.Error(t, err)
}

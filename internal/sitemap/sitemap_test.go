package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/countries/AF/index.html", Normalize("countries/AF/index.html"))
	assert.Equal(t, "/projects/summary.html", Normalize("/projects//summary.html"))
	assert.Equal(t, "/a/b.html", Normalize(`a\b.html`))
}

func TestProxyRegistrationOrderAndReplacement(t *testing.T) {
	sm := New()
	sm.Proxy("/projects/X/index.html", "/projects/summary.html", Locals{"v": 1})
	sm.Proxy("/countries/AF/index.html", "countries/country.html", nil)
	sm.Proxy("projects/X/index.html", "/projects/summary.html", Locals{"v": 2})

	require.Equal(t, 2, sm.Len())
	res := sm.Resources()
	assert.Equal(t, "/projects/X/index.html", res[0].Path)
	assert.Equal(t, 2, res[0].Locals["v"])
	assert.Equal(t, "/countries/country.html", res[1].Template)

	p, ok := sm.Lookup("/countries/AF/index.html")
	require.True(t, ok)
	assert.Equal(t, "/countries/country.html", p.Template)
	_, ok = sm.Lookup("/nope.html")
	assert.False(t, ok)
}

func TestIgnore(t *testing.T) {
	sm := New()
	sm.Ignore("projects/summary.html")
	sm.Ignore("/countries/country.html")

	assert.True(t, sm.IsIgnored("/projects/summary.html"))
	assert.False(t, sm.IsIgnored("/index.html"))
	assert.Equal(t, []string{"/countries/country.html", "/projects/summary.html"}, sm.Ignored())
}

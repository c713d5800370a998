package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/logfields"
)

// Site is the "site" value every page sees.
type Site struct {
	Title     string
	BaseURL   string
	APIURL    string
	AccessURL string
}

// Page is the "page" value: the output path and the template it came from.
type Page struct {
	Path     string
	Template string
}

// Options configures a Renderer.
type Options struct {
	SourceDir string
	// Layout is relative to SourceDir. A missing layout file renders bare bodies.
	Layout string
	Funcs  template.FuncMap
	Site   Site
	Data   map[string]any
}

// Renderer parses templates once and executes them per page.
type Renderer struct {
	opts   Options
	base   *template.Template
	layout *template.Template
	pages  map[string]*template.Template
}

// New parses every partial and the layout.
func New(opts Options) (*Renderer, error) {
	base := template.New("").Funcs(opts.Funcs)
	partials, err := findPartials(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	for _, rel := range partials {
		if err := parseInto(base, opts.SourceDir, rel); err != nil {
			return nil, err
		}
	}

	r := &Renderer{opts: opts, base: base, pages: map[string]*template.Template{}}
	if opts.Layout != "" {
		layoutPath := filepath.Join(opts.SourceDir, filepath.FromSlash(opts.Layout))
		if _, statErr := os.Stat(layoutPath); statErr == nil {
			t, cloneErr := base.Clone()
			if cloneErr != nil {
				return nil, fmt.Errorf("clone partials: %w", cloneErr)
			}
			if err := parseInto(t, opts.SourceDir, opts.Layout); err != nil {
				return nil, err
			}
			r.layout = t.Lookup(opts.Layout)
		} else {
			slog.Debug("No layout; rendering bare pages", logfields.Template(opts.Layout))
		}
	}
	return r, nil
}

// HasLayout reports whether pages are wrapped in a layout.
func (r *Renderer) HasLayout() bool { return r.layout != nil }

// Render executes tpl for the page at pagePath. tpl is a site-relative path
// such as "/countries/country.html".
func (r *Renderer) Render(pagePath, tpl string, locals map[string]any) ([]byte, error) {
	name := strings.TrimPrefix(path.Clean("/"+tpl), "/")
	t, err := r.page(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, foundation.BuildError(fmt.Sprintf("page %s: template %s not found", pagePath, tpl)).
			WithCause(err).
			WithContext("path", pagePath).
			WithContext("template", tpl).
			Build()
	}

	data := r.pageData(pagePath, "/"+name, locals)
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return nil, foundation.RenderError(fmt.Sprintf("render %s", pagePath)).
			WithCause(err).
			WithContext("path", pagePath).
			Build()
	}
	if r.layout == nil {
		return body.Bytes(), nil
	}

	data["content"] = template.HTML(body.String()) // #nosec G203 -- body was produced by html/template
	var out bytes.Buffer
	if err := r.layout.Execute(&out, data); err != nil {
		return nil, foundation.RenderError(fmt.Sprintf("render layout for %s", pagePath)).
			WithCause(err).
			WithContext("path", pagePath).
			WithContext("template", r.opts.Layout).
			Build()
	}
	return out.Bytes(), nil
}

func (r *Renderer) page(name string) (*template.Template, error) {
	if t, ok := r.pages[name]; ok {
		return t, nil
	}
	t, err := r.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone partials: %w", err)
	}
	if err := parseInto(t, r.opts.SourceDir, name); err != nil {
		return nil, err
	}
	page := t.Lookup(name)
	r.pages[name] = page
	return page, nil
}

func (r *Renderer) pageData(pagePath, tpl string, locals map[string]any) map[string]any {
	data := make(map[string]any, len(locals)+3)
	maps.Copy(data, locals)
	data["page"] = Page{Path: pagePath, Template: tpl}
	data["site"] = r.opts.Site
	data["data"] = r.opts.Data
	return data
}

func parseInto(t *template.Template, sourceDir, rel string) error {
	// #nosec G304 -- rel comes from a walk of sourceDir or from the sitemap.
	src, err := os.ReadFile(filepath.Join(sourceDir, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("read template %s: %w", rel, err)
	}
	if _, err := t.New(rel).Parse(string(src)); err != nil {
		return foundation.RenderError(fmt.Sprintf("parse template %s", rel)).
			WithCause(err).
			WithContext("template", rel).
			Build()
	}
	return nil
}

func findPartials(sourceDir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), "_") || filepath.Ext(p) != ".html" {
			return nil
		}
		rel, relErr := filepath.Rel(sourceDir, p)
		if relErr != nil {
			return relErr
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "scan partials").
			WithContext("path", sourceDir).
			Build()
	}
	return out, nil
}

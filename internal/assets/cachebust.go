package assets

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// RewriteHTML appends cache-busting queries to href and src attributes that
// point at assets in the manifest. Everything else is emitted byte for byte.
// pagePath resolves relative references.
func RewriteHTML(pagePath string, src []byte, m *Manifest) ([]byte, bool) {
	if m.Len() == 0 {
		return src, false
	}
	z := html.NewTokenizer(bytes.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))
	changed := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return src, false
			}
			break
		}
		raw := append([]byte(nil), z.Raw()...)
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}
		tok := z.Token()
		if !rewriteAttrs(&tok, pagePath, m) {
			out.Write(raw)
			continue
		}
		changed = true
		out.WriteString(tok.String())
	}
	if !changed {
		return src, false
	}
	return out.Bytes(), true
}

func rewriteAttrs(tok *html.Token, pagePath string, m *Manifest) bool {
	changed := false
	for i, a := range tok.Attr {
		if a.Namespace != "" || (a.Key != "href" && a.Key != "src") {
			continue
		}
		target, ok := assetTarget(pagePath, a.Val)
		if !ok {
			continue
		}
		if h, known := m.Lookup(target); known {
			tok.Attr[i].Val = a.Val + "?" + h
			changed = true
		}
	}
	return changed
}

// assetTarget resolves ref to a site path. External URLs, fragments and refs
// that already carry a query are not candidates.
func assetTarget(pagePath, ref string) (string, bool) {
	if ref == "" || strings.ContainsAny(ref, "?#") || strings.HasPrefix(ref, "//") || strings.Contains(ref, ":") {
		return "", false
	}
	if strings.HasPrefix(ref, "/") {
		return path.Clean(ref), true
	}
	return path.Join(path.Dir(pagePath), ref), true
}

// RewriteDir rewrites every .html file under outDir in place and returns how
// many changed.
func RewriteDir(outDir string, m *Manifest) (int, error) {
	if m.Len() == 0 {
		return 0, nil
	}
	count := 0
	err := filepath.WalkDir(outDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(outDir, p)
		if err != nil {
			return err
		}
		// #nosec G304 -- p comes from walking outDir.
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rewritten, changed := RewriteHTML("/"+filepath.ToSlash(rel), src, m)
		if !changed {
			return nil
		}
		count++
		// #nosec G306 -- published site files must be world readable.
		return os.WriteFile(p, rewritten, 0o644)
	})
	if err != nil {
		return count, foundation.WrapError(err, foundation.CategoryAssets, "rewrite asset references").
			WithContext("path", outDir).
			Build()
	}
	return count, nil
}

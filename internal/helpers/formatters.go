package helpers

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dfid/devtracker-site/internal/store"
)

var printer = message.NewPrinter(language.BritishEnglish)

// Formatters returns number, date and text formatting helpers.
func Formatters() template.FuncMap {
	return template.FuncMap{
		"formatMoney":    FormatMoney,
		"formatMillions": FormatMillions,
		"formatNumber":   FormatNumber,
		"formatDate":     FormatDate,
		"markdown":       Markdown,
		"truncate":       Truncate,
		"pluralize":      Pluralize,
	}
}

// FormatNumber renders v rounded to an integer with thousands separators.
func FormatNumber(v any) string {
	f, ok := store.AsFloat(v)
	if !ok {
		return ""
	}
	return printer.Sprintf("%d", int64(math.Round(f)))
}

// FormatMoney renders v as whole pounds: £1,234,567.
func FormatMoney(v any) string {
	f, ok := store.AsFloat(v)
	if !ok {
		return ""
	}
	if f < 0 {
		return "-£" + FormatNumber(-f)
	}
	return "£" + FormatNumber(f)
}

// FormatMillions renders v in millions of pounds with two decimals: £1.25m.
func FormatMillions(v any) string {
	f, ok := store.AsFloat(v)
	if !ok {
		return ""
	}
	return fmt.Sprintf("£%.2fm", f/1e6)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// FormatDate renders time values and date strings as "2 Jan 2006".
// Strings in an unknown layout come back unchanged.
func FormatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2 Jan 2006")
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.Format("2 Jan 2006")
			}
		}
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Markdown converts CMS markdown fields to HTML.
func Markdown(v any) (template.HTML, error) {
	s, _ := v.(string)
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- goldmark escapes raw HTML by default
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(n int, v any) string {
	s, _ := v.(string)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := n - 3
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "..."
}

// Pluralize renders "1 project" or "3 projects".
func Pluralize(count any, singular, plural string) string {
	f, _ := store.AsFloat(count)
	n := int64(f)
	if n == 1 {
		return "1 " + singular
	}
	return printer.Sprintf("%d", n) + " " + plural
}

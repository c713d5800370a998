package helpers

import (
	"html/template"
	"path"
	"strings"

	"github.com/dfid/devtracker-site/internal/pages"
)

// countryNames covers the countries DFID reports bilateral programmes for.
var countryNames = map[string]string{
	"AF": "Afghanistan",
	"BD": "Bangladesh",
	"CD": "Democratic Republic of the Congo",
	"ET": "Ethiopia",
	"GH": "Ghana",
	"IN": "India",
	"KE": "Kenya",
	"KG": "Kyrgyzstan",
	"LR": "Liberia",
	"MM": "Burma",
	"MW": "Malawi",
	"MZ": "Mozambique",
	"NE": "Niger",
	"NG": "Nigeria",
	"NP": "Nepal",
	"OT": "Occupied Palestinian Territories",
	"PK": "Pakistan",
	"RW": "Rwanda",
	"SD": "Sudan",
	"SL": "Sierra Leone",
	"SO": "Somalia",
	"SS": "South Sudan",
	"TJ": "Tajikistan",
	"TZ": "Tanzania",
	"UG": "Uganda",
	"YE": "Yemen",
	"ZA": "South Africa",
	"ZM": "Zambia",
	"ZW": "Zimbabwe",
}

// CountryHelpers returns the country name and link helpers. Flags live under
// imagesDir/flags.
func CountryHelpers(imagesDir string) template.FuncMap {
	return template.FuncMap{
		"countryName": CountryName,
		"countryPath": func(code any) string {
			return prettyPath(pages.CountryPath(codeOf(code)))
		},
		"countryProjectsPath": func(code any) string {
			return prettyPath(pages.CountryProjectsPath(codeOf(code)))
		},
		"flagPath": func(code any) string {
			return "/" + path.Join(imagesDir, "flags", strings.ToLower(codeOf(code))+".png")
		},
	}
}

// CountryName maps an ISO code to its display name, falling back to the code.
func CountryName(code any) string {
	c := codeOf(code)
	if name, ok := countryNames[strings.ToUpper(c)]; ok {
		return name
	}
	return c
}

func codeOf(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// prettyPath drops a trailing index.html so links point at the directory.
func prettyPath(p string) string {
	if strings.HasSuffix(p, "/index.html") {
		return strings.TrimSuffix(p, "index.html")
	}
	return p
}

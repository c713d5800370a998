package assets

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

var mediaTypes = map[string]string{
	".css": "text/css",
	".js":  "application/javascript",
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaTypes[".css"], css.Minify)
	m.AddFunc(mediaTypes[".js"], js.Minify)
	return m
}

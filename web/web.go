// Package web embeds the song browser page and its assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates static
var files embed.FS

// IndexTemplate renders the song browser. It expects a value with a Songs
// field holding the sorted titles.
var IndexTemplate = template.Must(template.ParseFS(files, "templates/index.html"))

// StaticHandler serves the embedded assets under the given URL prefix.
func StaticHandler(prefix string) http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}

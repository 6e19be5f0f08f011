// Package web embeds the browser shell served at the site root.
package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed index.html app.js style.css
var assets embed.FS

// FS returns the shell assets, read from dir when it is set and from the
// embedded copy otherwise.
func FS(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return assets
}

// Package assets embeds the minimal static placeholder client. The actual
// browser-side renderer is out of scope for this server (spec §1); this
// is just enough to serve a page and confirm the server is reachable.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// FS returns the embedded static file tree rooted at "static", suitable
// for http.FileServer(http.FS(assets.FS())).
func FS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("assets: static directory missing from embed: " + err.Error())
	}
	return sub
}

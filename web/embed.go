// Package web provides the embedded browser assets (CSS, JS) and the
// sample content served when no content directory is configured.
package web

import (
	"embed"
	"io/fs"
)

// StaticFS embeds the web/static/ directory tree, served at /static/.
//
//go:embed all:static
var StaticFS embed.FS

// ContentFS embeds the sample posts and docs.
//
//go:embed content
var ContentFS embed.FS

// Static returns the static assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(StaticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Content returns the sample content rooted so that posts/ and docs/ are
// top-level directories.
func Content() fs.FS {
	sub, err := fs.Sub(ContentFS, "content")
	if err != nil {
		panic(err)
	}
	return sub
}

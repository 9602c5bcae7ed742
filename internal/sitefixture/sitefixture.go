// Package sitefixture serves a small offline copy of the Swag Labs demo store
// and an alerts page, so browser checks can be exercised without network
// access.
package sitefixture

import (
	"embed"
	"io/fs"
	"net/http"
	"net/http/httptest"
)

//go:embed site/*
var siteFS embed.FS

// Handler serves the fixture pages. "/" is the login page, "/alerts.html"
// the dialog playground and "/multiselect.html" a multiple-choice list box.
func Handler() http.Handler {
	sub, err := fs.Sub(siteFS, "site")
	if err != nil {
		panic("sitefixture: embedded site missing: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}

// Start serves the fixture on a random local port. The caller must Close
// the returned server.
func Start() *httptest.Server {
	return httptest.NewServer(Handler())
}

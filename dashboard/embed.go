// Package dashboard provides the embedded web UI assets for sitewait.
//
// The dashboard is a single page that subscribes to the server's event
// stream and shows the latest result of every check. It is embedded at
// compile time so the sitewait binary needs no asset files on disk.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Main dashboard page with inline CSS and JavaScript
//
// Every {{.Title}} in index.html is replaced with the configured title.
//
//go:embed assets/*
var Assets embed.FS

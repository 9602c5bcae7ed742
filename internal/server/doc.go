// Package server provides the HTTP server for the sitewait dashboard and API.
//
// This package is internal to sitewait and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: "/api/results" for the latest results and
//     "/api/results/{name}" for one check's history
//   - Server-Sent Events: Real-time updates at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server

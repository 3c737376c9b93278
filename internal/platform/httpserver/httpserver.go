// Package httpserver builds the http.Server the API runs on.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server with timeouts sized for a small JSON API: requests
// carry kilobyte payloads and the slowest handler is a dashboard fan-out, so
// anything holding a connection for tens of seconds is not a client worth
// keeping.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

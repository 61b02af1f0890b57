// Package httpclient builds HTTP clients with sane transport defaults.
package httpclient

import (
	"net/http"
	"time"
)

// New returns an *http.Client with the given total request timeout and
// connection pooling suitable for repeated calls against one API host.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

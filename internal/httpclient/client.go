package httpclient

import (
	"net/http"
	"time"
)

// New returns an HTTP client with the given timeout and connection reuse.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Shared HTTP client with timeout and connection reuse.
var Default = New(30 * time.Second)

package provider

import (
	"net"
	"net/http"
	"time"
)

// defaultHTTPTimeout bounds a single upstream call. The dispatcher also sets
// a per-call context deadline; this is the hard outer limit.
const defaultHTTPTimeout = 30 * time.Second

// SharedHTTPClient returns an HTTP client with connection pooling, sized for
// the one-call-per-query traffic this gateway produces. Use this instead of
// creating individual clients per provider.
func SharedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

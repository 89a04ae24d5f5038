package middleware

import (
	"net"
	"net/http"
	"strings"
)

// Headers consulted by KeyByRealIP, in priority order. Proxies and load
// balancers set these with the originating client address.
var realIPHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
}

// KeyByRealIP extracts the client IP for use as a rate limiting bucket key,
// preferring proxy forwarding headers over the transport peer address.
// X-Forwarded-For may carry a comma-separated chain; the first entry is the
// original client. Falls back to the request RemoteAddr when no header
// yields a valid IP.
//
// Only use this extractor behind a trusted proxy: the headers are
// client-controlled and trivially spoofed on a directly exposed server.
func KeyByRealIP(r *http.Request) string {
	for _, header := range realIPHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		if first, _, found := strings.Cut(value, ","); found {
			value = first
		}
		value = strings.TrimSpace(value)
		if ip := net.ParseIP(value); ip != nil {
			return ip.String()
		}
	}
	return clientHost(r)
}

package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/throttlehq/throttle/middleware"
)

func TestKeyByRealIP(t *testing.T) {
	t.Parallel()

	t.Run("prefers CF-Connecting-IP", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("CF-Connecting-IP", "203.0.113.7")
		r.Header.Set("X-Real-IP", "198.51.100.2")

		assert.Equal(t, "203.0.113.7", middleware.KeyByRealIP(r))
	})

	t.Run("takes first entry of forwarded chain", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2, 10.0.0.3")

		assert.Equal(t, "203.0.113.7", middleware.KeyByRealIP(r))
	})

	t.Run("skips invalid header values", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Real-IP", "not-an-ip")
		r.Header.Set("X-Forwarded-For", "198.51.100.2")

		assert.Equal(t, "198.51.100.2", middleware.KeyByRealIP(r))
	})

	t.Run("falls back to remote address", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"

		assert.Equal(t, "10.0.0.1", middleware.KeyByRealIP(r))
	})

	t.Run("normalizes IPv6", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Real-IP", "2001:db8::1")

		assert.Equal(t, "2001:db8::1", middleware.KeyByRealIP(r))
	})
}

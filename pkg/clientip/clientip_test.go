package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"203.0.113.7:51234":        "203.0.113.7",
		"203.0.113.7":              "203.0.113.7",
		"[::ffff:203.0.113.7]:443": "203.0.113.7",
		"[2001:db8::1]:8080":       "2001:db8::1",
		"[fe80::1%eth0]:80":        "fe80::1",
		"  198.51.100.2:1 ":        "198.51.100.2",
		"not-an-ip":                "not-an-ip",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestRealClientIPIgnoresForwardedHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:40000"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	assert.Equal(t, "192.0.2.10", RealClientIP(r))
}

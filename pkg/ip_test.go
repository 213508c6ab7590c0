package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "real ip header", realIP: "83.12.53.65", remoteAddr: "10.0.0.1:1234", want: "83.12.53.65"},
		{name: "forwarded chain", forwarded: "83.12.53.65, 10.0.0.2", remoteAddr: "10.0.0.1:1234", want: "83.12.53.65"},
		{name: "remote addr", remoteAddr: "172.20.0.1:60102", want: "172.20.0.1"},
		{name: "remote addr without port", remoteAddr: "172.20.0.1", want: "172.20.0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/health", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				r.Header.Set("X-Real-Ip", tc.realIP)
			}
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, ClientIP(r))
		})
	}
}

package middleware

import (
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds request bodies; the largest one is a finished
// session with its set logs.
const DefaultMaxBodyBytes = 1 << 20

// DrainAndCloseRequest caps the body size, and after the handler is done
// drains and closes whatever it left unread so the connection can be reused.
func DrainAndCloseRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)

			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}

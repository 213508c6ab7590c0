package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymprogram/internal/auth"
)

func TestAuthMiddleware(t *testing.T) {
	resolver := auth.NewTestResolver()
	resolver.Sessions["tkn-1"] = "user-1"

	testCases := []struct {
		name           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
		expectedUserID string
	}{
		{
			name:           "health is open",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "options",
			method:         http.MethodOptions,
			path:           "/api/routines/r1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing token",
			method:         http.MethodGet,
			path:           "/api/routines/r1/rtf-week-goals",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown token",
			method:         http.MethodGet,
			path:           "/api/routines/r1/rtf-week-goals",
			headers:        map[string]string{TokenHeader: "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token header",
			method:         http.MethodGet,
			path:           "/api/routines/r1/rtf-week-goals",
			headers:        map[string]string{TokenHeader: "tkn-1"},
			expectedStatus: http.StatusOK,
			expectedUserID: "user-1",
		},
		{
			name:           "bearer token",
			method:         http.MethodPost,
			path:           "/api/routines/r1/tm-adjustments",
			headers:        map[string]string{"Authorization": "Bearer tkn-1"},
			expectedStatus: http.StatusOK,
			expectedUserID: "user-1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			var gotUserID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = auth.UserIDFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			NewAuthMiddlewareHandler(resolver).AuthCheck()(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedUserID, gotUserID)
		})
	}
}

package cors_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"devlift/questionnaire-backend/internal/cors"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandlerFunc(t *testing.T) {
	testCases := []struct {
		name         string
		allowOrigins string
		method       string
		origin       string
		wantStatus   int
		wantAllow    string
		wantNext     bool
	}{
		{
			name:         "allowed origin preflight",
			allowOrigins: "https://app.example.com",
			method:       http.MethodOptions,
			origin:       "https://app.example.com",
			wantStatus:   http.StatusNoContent,
			wantAllow:    "https://app.example.com",
		},
		{
			name:         "disallowed origin preflight is rejected",
			allowOrigins: "https://app.example.com",
			method:       http.MethodOptions,
			origin:       "https://evil.example.com",
			wantStatus:   http.StatusForbidden,
		},
		{
			name:         "wildcard allows any origin",
			allowOrigins: "*",
			method:       http.MethodOptions,
			origin:       "https://anywhere.example.com",
			wantStatus:   http.StatusNoContent,
			wantAllow:    "https://anywhere.example.com",
		},
		{
			name:         "same-origin preflight without origin header",
			allowOrigins: "https://app.example.com",
			method:       http.MethodOptions,
			wantStatus:   http.StatusNoContent,
		},
		{
			name:         "allowed origin request reaches the handler",
			allowOrigins: "https://app.example.com",
			method:       http.MethodGet,
			origin:       "https://app.example.com",
			wantStatus:   http.StatusOK,
			wantAllow:    "https://app.example.com",
			wantNext:     true,
		},
		{
			name:         "disallowed origin request passes through without headers",
			allowOrigins: "https://app.example.com",
			method:       http.MethodGet,
			origin:       "https://evil.example.com",
			wantStatus:   http.StatusOK,
			wantNext:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			middleware := cors.NewMiddleware(zap.NewNop(), tc.allowOrigins)

			nextCalled := false
			handler := middleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(tc.method, "/api/questions", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()

			handler(w, r)

			require.Equal(t, tc.wantStatus, w.Code)
			require.Equal(t, tc.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tc.wantNext, nextCalled)
		})
	}
}

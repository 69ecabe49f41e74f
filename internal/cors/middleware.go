package cors

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type Middleware struct {
	logger       *zap.Logger
	allowOrigins []string
}

func NewMiddleware(logger *zap.Logger, allowOrigins string) *Middleware {
	var origins []string
	for _, origin := range strings.Split(allowOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	return &Middleware{
		logger:       logger,
		allowOrigins: origins,
	}
}

func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && m.originAllowed(origin)
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !allowed {
				m.logger.Debug("Rejected preflight from disallowed origin", zap.String("origin", origin))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

func (m *Middleware) originAllowed(origin string) bool {
	for _, allowed := range m.allowOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

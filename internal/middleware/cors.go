package middleware

import (
	"net/http"
	"strings"
)

// Cross-origin headers for the board and agenda UIs. With no origins
// configured every origin is echoed back, which is the dev setup; a
// deployment lists its UI origins explicitly.
type CORSMiddleware struct {
	allowed map[string]bool
}

// NewCORSMiddleware creates a CORS middleware restricted to the given
// origins. No origins means allow all.
func NewCORSMiddleware(allowedOrigins ...string) *CORSMiddleware {
	m := &CORSMiddleware{}
	if len(allowedOrigins) > 0 {
		m.allowed = make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			m.allowed[o] = true
		}
	}
	return m
}

var corsAllowedHeaders = strings.Join([]string{
	"Content-Type",
	"Authorization",
	"X-Requested-With",
	RequestIDHeader,
}, ", ")

// Wrap adds the CORS headers and answers preflight requests without
// invoking the wrapped handler.
func (m *CORSMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && m.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) originAllowed(origin string) bool {
	if m.allowed == nil {
		return true
	}
	return m.allowed[origin] || m.allowed["*"]
}

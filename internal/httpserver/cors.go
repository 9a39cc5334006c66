package httpserver

import (
	"net/http"
	"strings"

	"github.com/fdg312/nomnom/internal/config"
)

const (
	corsAllowMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsAllowHeaders = "Authorization,Content-Type"
	corsMaxAge       = "600"
)

// corsPolicy — разрешенные источники для браузерных клиентов.
type corsPolicy struct {
	origins          map[string]bool
	allowCredentials bool
}

func (p corsPolicy) allows(origin string) bool {
	return origin != "" && p.origins[origin]
}

func (p corsPolicy) setHeaders(w http.ResponseWriter, origin string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Vary", "Origin")
	if p.allowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// CORSMiddleware добавляет CORS заголовки для разрешенных источников.
// Preflight от неизвестного источника отвечает 204 без заголовков: браузер
// заблокирует запрос сам.
func CORSMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	policy := corsPolicy{
		origins:          make(map[string]bool, len(cfg.CORSAllowedOrigins)),
		allowCredentials: cfg.CORSAllowCredentials,
	}
	for _, o := range cfg.CORSAllowedOrigins {
		policy.origins[strings.TrimSpace(o)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := policy.allows(origin)

		if allowed {
			policy.setHeaders(w, origin)
		}

		if r.Method == http.MethodOptions && origin != "" {
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

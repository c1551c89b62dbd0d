package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// originMatcher decide qué orígenes aceptan credenciales. Cada entrada
// de ALLOW_ORIGINS es un origin exacto o un wildcard de subdominio con
// el prefijo "*.".
type originMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func newOriginMatcher(allowedOrigins []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]struct{}, len(allowedOrigins))}
	for _, entry := range allowedOrigins {
		e := strings.TrimSpace(entry)
		switch {
		case e == "":
		case strings.HasPrefix(e, "*."):
			// guarda ".dominio" para comparar contra el host
			m.suffixes = append(m.suffixes, strings.ToLower(strings.TrimPrefix(e, "*")))
		default:
			m.exact[e] = struct{}{}
		}
	}
	return m
}

func (m *originMatcher) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, suf := range m.suffixes {
		// el wildcard exige un subdominio real: la raíz no pasa
		if strings.HasSuffix(host, suf) && host != strings.TrimPrefix(suf, ".") {
			return true
		}
	}
	return false
}

// CORS aplica la política de orígenes configurada en ALLOW_ORIGINS.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	matcher := newOriginMatcher(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if matcher.allows(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

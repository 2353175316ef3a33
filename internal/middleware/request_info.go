package middleware

import (
	"net/http"

	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
)

// RequestInfo captures the client address, user agent and page of each
// request so security events recorded further down can be enriched with them.
func RequestInfo(config *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := pkghttp.NewRequestInfo(r, config)
			next.ServeHTTP(w, r.WithContext(pkghttp.WithRequestInfo(r.Context(), info)))
		})
	}
}

// clientIP returns the address recorded by RequestInfo, or the raw peer
func clientIP(r *http.Request) string {
	if info, ok := pkghttp.RequestInfoFromContext(r.Context()); ok && info.IPAddress != "" {
		return info.IPAddress
	}
	return pkghttp.ExtractClientIP(r, nil)
}

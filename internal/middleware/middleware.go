package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"

	"github.com/zhouzirui/appt-dashboard/internal/config"
	"github.com/zhouzirui/appt-dashboard/pkg/utils"
)

// CSRFHeader carries the token on JSON requests from the page script.
const CSRFHeader = "X-CSRF-Token"

// CORS allows read-only cross-origin access to the JSON endpoints.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		allowed = append(allowed, "http://"+o, "https://"+o)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", CSRFHeader},
		MaxAge:         300,
	})
}

// CSRF protects state-changing requests. Safe methods pass through and get a
// token issued for the page to echo back in CSRFHeader.
func CSRF(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(false),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(cfg.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "forbidden"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			utils.RespondError(w, http.StatusForbidden, reason)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the headers every page response carries.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; connect-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

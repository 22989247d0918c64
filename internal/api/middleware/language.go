package middleware

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
)

// Language stores the Accept-Language preference for error messages.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := apperr.ParseLang(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(apperr.WithLang(r.Context(), lang)))
	})
}

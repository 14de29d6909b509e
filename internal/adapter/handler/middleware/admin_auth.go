package middleware

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
)

// AdminAuth creates middleware requiring "Authorization: Bearer <secret>".
// An empty secret rejects every request.
func AdminAuth(secret string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || secret == "" || !hmac.Equal([]byte(token), []byte(secret)) {
				log.Warn("unauthorized admin request",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
)

// MaxInteractionBodyBytes bounds the body read for signature verification.
const MaxInteractionBodyBytes = 1 << 20

// DiscordAuth creates middleware for interaction webhook signature verification.
// The body is verified before anything parses it; unverified requests get 401.
func DiscordAuth(verifier *discord.SignatureVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxInteractionBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				log.Error("failed to read request body",
					"error", err,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, "invalid request", http.StatusBadRequest)
				return
			}
			r.Body.Close()

			err = verifier.VerifySignature(
				r.Header.Get(discord.TimestampHeader),
				body,
				r.Header.Get(discord.SignatureHeader),
			)
			if err != nil {
				log.Warn("invalid interaction signature",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				http.Error(w, "invalid request signature", http.StatusUnauthorized)
				return
			}

			// Restore body for handler
			r.Body = io.NopCloser(bytes.NewReader(body))

			next.ServeHTTP(w, r)
		})
	}
}

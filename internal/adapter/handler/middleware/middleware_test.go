package middleware

import (
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
)

func newSigner(t *testing.T) (ed25519.PrivateKey, *discord.SignatureVerifier) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	verifier, err := discord.NewSignatureVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)
	return priv, verifier
}

func signedRequest(priv ed25519.PrivateKey, timestamp, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	sig := ed25519.Sign(priv, []byte(timestamp+body))
	req.Header.Set(discord.SignatureHeader, hex.EncodeToString(sig))
	req.Header.Set(discord.TimestampHeader, timestamp)
	return req
}

func TestDiscordAuth(t *testing.T) {
	priv, verifier := newSigner(t)
	_, otherPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const body = `{"type":1}`

	var reached bool
	var gotBody string
	handler := DiscordAuth(verifier, logger.Nop{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
	}{
		{
			name:       "valid signature",
			req:        func() *http.Request { return signedRequest(priv, "1700000000", body) },
			wantStatus: http.StatusOK,
		},
		{
			name: "missing headers",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "signed by another key",
			req:        func() *http.Request { return signedRequest(otherPriv, "1700000000", body) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "tampered body",
			req: func() *http.Request {
				req := signedRequest(priv, "1700000000", body)
				req.Body = io.NopCloser(strings.NewReader(`{"type":3}`))
				return req
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "tampered timestamp",
			req: func() *http.Request {
				req := signedRequest(priv, "1700000000", body)
				req.Header.Set(discord.TimestampHeader, "1700000001")
				return req
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "signature not hex",
			req: func() *http.Request {
				req := signedRequest(priv, "1700000000", body)
				req.Header.Set(discord.SignatureHeader, "zz")
				return req
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached, gotBody = false, ""
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tt.req())

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, reached)
				assert.Equal(t, body, gotBody, "body must be restored for the handler")
			} else {
				assert.False(t, reached)
			}
		})
	}
}

func TestDiscordAuth_BodyTooLarge(t *testing.T) {
	priv, verifier := newSigner(t)
	handler := DiscordAuth(verifier, logger.Nop{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(priv, "1", strings.Repeat("a", MaxInteractionBodyBytes+1)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "valid token", secret: "s3cret", header: "Bearer s3cret", want: http.StatusNoContent},
		{name: "scheme is case insensitive", secret: "s3cret", header: "bearer s3cret", want: http.StatusNoContent},
		{name: "wrong token", secret: "s3cret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", secret: "s3cret", header: "", want: http.StatusUnauthorized},
		{name: "basic scheme", secret: "s3cret", header: "Basic s3cret", want: http.StatusUnauthorized},
		{name: "empty secret", secret: "", header: "Bearer ", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/prompt", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AdminAuth(tt.secret, logger.Nop{})(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestRecovery(t *testing.T) {
	handler := Recovery(logger.Nop{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	t.Run("slow handler times out", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Timeout(10*time.Millisecond, logger.Nop{})(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", nil))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("fast handler completes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Timeout(time.Second, logger.Nop{})(fast).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("probes are excluded", func(t *testing.T) {
		var hasDeadline bool
		probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasDeadline = r.Context().Deadline()
		})
		rec := httptest.NewRecorder()
		Timeout(time.Millisecond, logger.Nop{})(probe).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.False(t, hasDeadline)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/oggyb/mawaddah/internal/service/auth"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(raw string) (auth.Identity, error)
}

type AuthHandler struct {
	service *auth.Service
	log     *slog.Logger
}

func NewAuthHandler(service *auth.Service, log *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Authenticate rejects requests without a valid bearer token and stores
// the caller's identity in the request context.
func Authenticate(tokens TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			identity, err := tokens.ParseToken(raw)
			if err != nil {
				if log != nil {
					log.Debug("bearer token rejected", "err", err)
				}
				writeUnauthorized(w, "invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func callerFrom(ctx context.Context) (uint64, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return 0, false
	}
	return identity.UserID, true
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "belote_session"

// RatingSource looks up a player's stored rating for /api/auth/me.
type RatingSource interface {
	Rating(ctx context.Context, userID uint64) (rating int, ok bool, err error)
}

type HTTPHandler struct {
	manager    Service
	ratings    RatingSource
	sessionTTL time.Duration
	log        *zap.Logger
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileRequest struct {
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type authResponse struct {
	Account      Account `json:"account"`
	SessionToken string  `json:"sessionToken"`
}

type meResponse struct {
	Account
	Rating *int `json:"rating,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type ctxKey struct{}

// NewHTTPHandler wires the account routes. ratings may be nil.
func NewHTTPHandler(manager Service, ratings RatingSource, sessionTTL time.Duration, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &HTTPHandler{manager: manager, ratings: ratings, sessionTTL: sessionTTL, log: logger.Named("auth")}
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)
	r.With(h.RequireSession).Get("/api/auth/me", h.handleMe)
	r.With(h.RequireSession).Post("/api/user/update", h.handleUpdateProfile)
}

// RequireSession rejects requests without a valid session and stores the
// account in the request context.
func (h *HTTPHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		account, ok := h.manager.ResolveSession(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, account)))
	})
}

// AccountFromContext returns the account stored by RequireSession.
func AccountFromContext(ctx context.Context) (Account, bool) {
	account, ok := ctx.Value(ctxKey{}).(Account)
	return account, ok
}

// TokenFromRequest reads the session token from the Authorization header or
// the session cookie.
func TokenFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func (h *HTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, token, err := h.manager.Register(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUsernameTaken):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.log.Error("register failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "register failed")
		}
		return
	}

	h.log.Info("account registered", zap.Uint64("account", account.ID))
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{Account: account, SessionToken: token})
}

func (h *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, token, err := h.manager.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{Account: account, SessionToken: token})
}

func (h *HTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := TokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}

	h.manager.Logout(token)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())
	resp := meResponse{Account: account}
	if h.ratings != nil {
		rating, ok, err := h.ratings.Rating(r.Context(), account.ID)
		if err != nil {
			h.log.Warn("rating lookup failed", zap.Uint64("account", account.ID), zap.Error(err))
		} else if ok {
			resp.Rating = &rating
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.manager.UpdateProfile(account.ID, req.DisplayName, req.Avatar)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDisplayName), errors.Is(err, ErrInvalidAvatar):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAccountNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.log.Error("profile update failed", zap.Uint64("account", account.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "update failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func bearerToken(raw string) string {
	if !strings.HasPrefix(raw, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

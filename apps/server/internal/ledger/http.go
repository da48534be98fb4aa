package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"belote-lite/apps/server/internal/auth"
)

type HTTPHandler struct {
	ledger         Service
	requireSession func(http.Handler) http.Handler
	log            *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPHandler serves match history. requireSession must store the caller's
// account with the auth package's context helpers.
func NewHTTPHandler(ledgerService Service, requireSession func(http.Handler) http.Handler, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{ledger: ledgerService, requireSession: requireSession, log: logger.Named("ledger")}
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.With(h.requireSession).Get("/api/user/history", h.handleHistory)
}

func (h *HTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.ledger.RecentGames(ctx, account.ID, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		h.log.Error("query history failed", zap.Uint64("account", account.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query history failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRecentLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultRecentLimit
	}
	return clampLimit(n)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

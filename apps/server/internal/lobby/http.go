package lobby

import (
	"encoding/json"
	"net/http"
)

// RoomsHandler serves the lobby list for the caller identified by viewer.
func (l *Registry) RoomsHandler(viewer func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rooms": l.LobbyList(viewer(r)),
		})
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/DoyleJ11/partyroom-backend/internal/hub"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Rooms serves the same joinable-room board that is pushed over the websocket.
func Rooms(l *hub.Listing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, _ := l.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(list)
	}
}

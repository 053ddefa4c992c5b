package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"trivia-quest-service/internal/analytics"
)

const defaultStatsLimit = 20

// StatsHandler serves per-question error statistics.
type StatsHandler struct {
	stats analytics.ErrorStatsStore
}

func NewStatsHandler(stats analytics.ErrorStatsStore) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// ServeErrors handles GET /stats/errors?limit=N.
func (h *StatsHandler) ServeErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := defaultStatsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	stats, err := h.stats.TopErrors(r.Context(), limit)
	if err != nil {
		log.Printf("error stats: %v", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []analytics.ErrorStat{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// NewMux routes the service endpoints. A nil stats handler leaves
// /stats/errors unregistered.
func NewMux(ws *WSHandler, stats *StatsHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", Healthz)
	mux.HandleFunc("/ws", ws.ServeWS)
	if stats != nil {
		mux.HandleFunc("/stats/errors", stats.ServeErrors)
	}
	return mux
}

package api

import "net/http"

// StatsProvider reports the service snapshot served at /stats: whether the
// store is open, the driver behind it, record counts and challenges by status.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsFunc adapts a plain function to StatsProvider.
type StatsFunc func() map[string]any

// GetStats calls f.
func (f StatsFunc) GetStats() map[string]any { return f() }

// StatsHandler serves the service snapshot.
type StatsHandler struct {
	provider StatsProvider
}

func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{provider: p}
}

// HandleStats serves GET /stats. Counts are recomputed per call, so the
// response must not be cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]any{}
	if h.provider != nil {
		if s := h.provider.GetStats(); s != nil {
			stats = s
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stats)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsHandler serves a human-readable JSON snapshot of the notifier
// counters. Raw Prometheus metrics are available at /metrics via
// promhttp and are separate from this endpoint.
type StatsHandler struct {
	gatherer prometheus.Gatherer
}

func NewStatsHandler(g prometheus.Gatherer) *StatsHandler {
	return &StatsHandler{gatherer: g}
}

var statsFamilies = map[string]string{
	"indexnow_submissions_total":    "indexnow_submissions",
	"indexnow_urls_submitted_total": "indexnow_urls_submitted",
	"indexing_notifications_total":  "indexing_calls",
}

// GetStats handles GET /api/v1/stats
//
// Counters are keyed by their label values joined with "/", for example
// "www.bing.com/success".
//
// @Summary  Submission counter snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]map[string]float64
// @Router   /api/v1/stats [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	families, err := h.gatherer.Gather()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not gather metrics")
		return
	}

	out := make(map[string]map[string]float64, len(statsFamilies))
	for _, name := range statsFamilies {
		out[name] = map[string]float64{}
	}
	for _, mf := range families {
		name, ok := statsFamilies[mf.GetName()]
		if !ok {
			continue
		}
		for _, m := range mf.GetMetric() {
			values := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				values = append(values, lp.GetValue())
			}
			key := strings.Join(values, "/")
			if key == "" {
				key = "total"
			}
			out[name][key] += m.GetCounter().GetValue()
		}
	}
	respondJSON(w, http.StatusOK, out)
}

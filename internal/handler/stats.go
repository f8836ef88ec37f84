package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/actuallystonmai/fitness-plan-service/internal/service"
)

// GET /api/attempts/stats?hours=N
func (h *Handler) GetAttemptStats(w http.ResponseWriter, r *http.Request) {
	hours := 0
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		parsed, err := strconv.Atoi(hoursStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid hours parameter", "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	stats, err := h.service.ModelStats(r.Context(), hours)
	if err != nil {
		if errors.Is(err, service.ErrStatsDisabled) {
			writeError(w, http.StatusServiceUnavailable, "Attempt statistics unavailable", err.Error())
			return
		}
		h.log.Error().Err(err).Msg("attempt stats failed")
		writeError(w, http.StatusInternalServerError, "Failed to load attempt statistics", "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

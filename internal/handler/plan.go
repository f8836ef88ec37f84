package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
	"github.com/actuallystonmai/fitness-plan-service/internal/metrics"
	"github.com/actuallystonmai/fitness-plan-service/internal/render"
)

const maxBodyBytes = 64 << 10

const (
	msgInvalidBody   = "Invalid request body"
	msgMissingFields = "Missing required fields"
	msgConfig        = "Server configuration error"
	msgGenerate      = "Failed to generate fitness plan"
)

// POST /api/generate-plan
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		metrics.PlansTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		writeError(w, http.StatusBadRequest, msgInvalidBody, err.Error())
		return
	}

	profile, err := domain.DecodeProfile(body)
	if err != nil {
		metrics.PlansTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		var missing *domain.MissingFieldsError
		if errors.As(err, &missing) {
			writeError(w, http.StatusBadRequest, msgMissingFields, strings.Join(missing.Fields, ", "))
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody, err.Error())
		return
	}

	result, err := h.service.GeneratePlan(r.Context(), profile)
	if err != nil {
		// API key not configured
		if errors.Is(err, domain.ErrMissingAPIKey) {
			writeError(w, http.StatusInternalServerError, msgConfig, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("plan generation failed")
		writeError(w, http.StatusInternalServerError, msgGenerate, err.Error())
		return
	}

	resp := PlanResponse{Success: true, Plan: result.Text}
	if r.URL.Query().Get("format") == "html" {
		resp.HTML = render.HTML(result.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

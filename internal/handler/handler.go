package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
	"github.com/actuallystonmai/fitness-plan-service/internal/fallback"
)

type PlanService interface {
	GeneratePlan(ctx context.Context, p domain.UserProfile) (*fallback.Result, error)
	ModelStats(ctx context.Context, hours int) (*domain.ModelStatsResponse, error)
}

type Handler struct {
	service PlanService
	log     zerolog.Logger
}

func NewHandler(svc PlanService, log zerolog.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log.With().Str("component", "handler").Logger(),
	}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error envelope.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// ServerError writes the 500 envelope for failures no handler mapped,
// such as a recovered panic.
func ServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal server error", "unexpected server error")
}

// MethodNotAllowed is shared with the router for known routes hit with
// the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, StatusResponse{Error: "Method Not Allowed"})
}

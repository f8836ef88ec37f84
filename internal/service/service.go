package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
	"github.com/actuallystonmai/fitness-plan-service/internal/fallback"
	"github.com/actuallystonmai/fitness-plan-service/internal/metrics"
	"github.com/actuallystonmai/fitness-plan-service/internal/prompt"
)

const (
	defaultStatsHours = 24
	maxStatsHours     = 24 * 30
)

var ErrStatsDisabled = errors.New("attempt log is disabled")

// Planner runs one fallback search for a prompt.
type Planner interface {
	Run(ctx context.Context, prompt string) (*fallback.Result, error)
}

type StatsStore interface {
	ModelStats(ctx context.Context, since time.Time) ([]domain.ModelStat, error)
}

type Service struct {
	apiKey  string
	planner Planner
	stats   StatsStore
	log     zerolog.Logger
}

// NewService wires the plan flow. stats may be nil when no attempt log
// is configured.
func NewService(apiKey string, planner Planner, stats StatsStore, log zerolog.Logger) *Service {
	return &Service{
		apiKey:  apiKey,
		planner: planner,
		stats:   stats,
		log:     log.With().Str("component", "service").Logger(),
	}
}

// GeneratePlan turns a profile into plan text. A missing API key fails
// before any network call.
func (s *Service) GeneratePlan(ctx context.Context, p domain.UserProfile) (*fallback.Result, error) {
	if s.apiKey == "" {
		metrics.PlansTotal.WithLabelValues(metrics.OutcomeConfigError).Inc()
		s.log.Error().Msg("plan requested but GEMINI_API_KEY is not set")
		return nil, domain.ErrMissingAPIKey
	}

	start := time.Now()
	res, err := s.planner.Run(ctx, prompt.Build(p))
	if err != nil {
		outcome := metrics.OutcomeError
		if fallback.IsExhausted(err) {
			outcome = metrics.OutcomeExhausted
		}
		metrics.PlansTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.PlansTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.log.Info().
		Str("run_id", res.RunID.String()).
		Str("candidate", res.Candidate.String()).
		Int("attempts", res.Attempts).
		Dur("elapsed", time.Since(start)).
		Msg("plan ready")
	return res, nil
}

// ModelStats summarises the attempt log over the last hours (clamped).
func (s *Service) ModelStats(ctx context.Context, hours int) (*domain.ModelStatsResponse, error) {
	if s.stats == nil {
		return nil, ErrStatsDisabled
	}
	if hours <= 0 {
		hours = defaultStatsHours
	} else if hours > maxStatsHours {
		hours = maxStatsHours
	}

	now := time.Now().UTC()
	stats, err := s.stats.ModelStats(ctx, now.Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("fetch model stats: %w", err)
	}
	if stats == nil {
		stats = []domain.ModelStat{}
	}
	return &domain.ModelStatsResponse{
		WindowHours: hours,
		Models:      stats,
		GeneratedAt: now.Format(time.RFC3339),
	}, nil
}

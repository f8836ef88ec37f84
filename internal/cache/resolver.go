package cache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

type Resolver interface {
	ListModels(ctx context.Context, apiVersion string) ([]model.Candidate, error)
}

type Store interface {
	Get(ctx context.Context, apiVersion string) ([]model.Candidate, bool, error)
	Set(ctx context.Context, apiVersion string, cands []model.Candidate) error
}

// ModelResolver serves discovery listings from the store when it can.
// Store failures are logged and never fail discovery; only successful
// listings are stored.
type ModelResolver struct {
	next  Resolver
	store Store
	log   zerolog.Logger
}

func NewModelResolver(next Resolver, store Store, log zerolog.Logger) *ModelResolver {
	return &ModelResolver{
		next:  next,
		store: store,
		log:   log.With().Str("component", "discovery-cache").Logger(),
	}
}

func (r *ModelResolver) ListModels(ctx context.Context, apiVersion string) ([]model.Candidate, error) {
	cached, found, err := r.store.Get(ctx, apiVersion)
	if err != nil {
		r.log.Warn().Err(err).Str("api_version", apiVersion).Msg("cache get failed")
	}
	if found {
		return cached, nil
	}

	cands, err := r.next.ListModels(ctx, apiVersion)
	if err != nil {
		return nil, err
	}

	if err := r.store.Set(ctx, apiVersion, cands); err != nil {
		r.log.Warn().Err(err).Str("api_version", apiVersion).Msg("cache set failed")
	}
	return cands, nil
}

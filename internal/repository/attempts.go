package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
	"github.com/actuallystonmai/fitness-plan-service/internal/fallback"
	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

const (
	phaseListing   = "listing"
	maxErrorLength = 1000
)

// RecordAttempt implements fallback.Recorder. The record is queued;
// write failures are logged and never affect the run.
func (r *Repository) RecordAttempt(_ context.Context, runID uuid.UUID, a fallback.Attempt) {
	r.writer.enqueue(newRecord(runID, a.Seq, string(a.Phase), a.Candidate.APIVersion, a.Candidate.ID(), a.Err, a.Elapsed))
}

// RecordDiscovery logs a listing call as seq 0 with an empty model.
func (r *Repository) RecordDiscovery(_ context.Context, runID uuid.UUID, d fallback.Discovery) {
	r.writer.enqueue(newRecord(runID, 0, phaseListing, d.APIVersion, "", d.Err, d.Elapsed))
}

func newRecord(runID uuid.UUID, seq int, phase, version, modelID string, err error, elapsed time.Duration) attemptRecord {
	return attemptRecord{
		runID:     runID,
		seq:       seq,
		phase:     phase,
		version:   version,
		model:     modelID,
		outcome:   model.Kind(err),
		message:   errorMessage(err),
		latencyMs: elapsed.Milliseconds(),
	}
}

// errorMessage is the stored form of err: valid UTF-8 for TEXT columns,
// bounded in length.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return model.Truncate(strings.ToValidUTF8(err.Error(), ""), maxErrorLength)
}

// Get per-model attempt statistics since a point in time
func (r *Repository) ModelStats(ctx context.Context, since time.Time) ([]domain.ModelStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT api_version, model, COUNT(*),
		        COUNT(*) FILTER (WHERE outcome = $2),
		        COALESCE(AVG(latency_ms), 0)::float8
		 FROM model_attempts
		 WHERE phase <> $3 AND created_at >= $1
		 GROUP BY api_version, model
		 ORDER BY 4 DESC, 3 DESC, model`,
		since, model.KindNone, phaseListing,
	)
	if err != nil {
		return nil, fmt.Errorf("query model stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.ModelStat
	for rows.Next() {
		var s domain.ModelStat
		if err := rows.Scan(&s.APIVersion, &s.Model, &s.Attempts, &s.Successes, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan model stat: %w", err)
		}
		if s.Attempts > 0 {
			s.SuccessRate = float64(s.Successes) / float64(s.Attempts)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model stats: %w", err)
	}
	return stats, nil
}

// Cleanup removes attempt records older than the cutoff.
func (r *Repository) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM model_attempts WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("cleanup model attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

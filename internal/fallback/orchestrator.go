// Package fallback finds a model that answers. It runs a two-phase,
// strictly sequential search: models listed by discovery first (ranked,
// per API version), then a static list of preferred names across the
// same versions. A global deadline stops new attempts from starting.
package fallback

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

type Invoker interface {
	Generate(ctx context.Context, c model.Candidate, prompt string, budget time.Duration) (string, error)
}

type Resolver interface {
	ListModels(ctx context.Context, apiVersion string) ([]model.Candidate, error)
}

// Recorder observes a run. Implementations must not block for long;
// they are called inline between attempts.
type Recorder interface {
	RecordDiscovery(ctx context.Context, runID uuid.UUID, d Discovery)
	RecordAttempt(ctx context.Context, runID uuid.UUID, a Attempt)
}

type Policy struct {
	APIVersions       []string
	PreferredModels   []string
	CurrentGeneration string
	GlobalDeadline    time.Duration
	AttemptTimeout    time.Duration
}

type Discovery struct {
	APIVersion string
	Listed     int
	Usable     int
	Err        error
	Elapsed    time.Duration
}

type Attempt struct {
	Seq       int
	Phase     Phase
	Candidate model.Candidate
	Err       error
	Elapsed   time.Duration
}

type Result struct {
	RunID     uuid.UUID
	Text      string
	Candidate model.Candidate
	Attempts  int
}

type Orchestrator struct {
	invoker  Invoker
	resolver Resolver
	policy   Policy
	recorder Recorder
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Orchestrator)

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func New(invoker Invoker, resolver Resolver, policy Policy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		invoker:  invoker,
		resolver: resolver,
		policy:   policy,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With().Str("component", "fallback").Logger()
	return o
}

// run is the state of one search. Nothing here is shared between runs.
type run struct {
	id       uuid.UUID
	deadline time.Time
	attempts int
	last     error
	log      zerolog.Logger
}

// Run searches for the first candidate that produces text. It returns a
// *ExhaustedError carrying the last underlying failure when nothing
// succeeded.
func (o *Orchestrator) Run(ctx context.Context, prompt string) (*Result, error) {
	r := &run{
		id:       uuid.New(),
		deadline: o.now().Add(o.policy.GlobalDeadline),
	}
	r.log = o.log.With().Str("run_id", r.id.String()).Logger()

	steps := initialPlan(o.policy)
	for len(steps) > 0 {
		s := steps[0]
		steps = steps[1:]

		if !o.mayStart(ctx, r) {
			break
		}

		switch s.kind {
		case stepDiscover:
			steps = append(o.discover(ctx, r, s.version), steps...)
		case stepAttempt:
			text, err := o.attempt(ctx, r, s, prompt)
			if err == nil {
				r.log.Info().
					Str("candidate", s.candidate.String()).
					Str("phase", string(s.phase)).
					Int("attempts", r.attempts).
					Msg("plan generated")
				return &Result{RunID: r.id, Text: text, Candidate: s.candidate, Attempts: r.attempts}, nil
			}
		}
	}

	if r.last == nil {
		r.last = ErrNoCandidates
	}
	r.log.Error().Err(r.last).Int("attempts", r.attempts).Msg("all model attempts failed")
	return nil, &ExhaustedError{Last: r.last, Attempts: r.attempts}
}

// mayStart gates every network step on the caller's context and the
// global deadline. A step already running is never interrupted here.
func (o *Orchestrator) mayStart(ctx context.Context, r *run) bool {
	if err := ctx.Err(); err != nil {
		if r.last == nil {
			r.last = err
		}
		r.log.Warn().Err(err).Msg("request cancelled, stopping search")
		return false
	}
	if o.now().After(r.deadline) {
		if r.last == nil {
			r.last = ErrDeadline
		}
		r.log.Warn().Time("deadline", r.deadline).Msg("global deadline passed, stopping search")
		return false
	}
	return true
}

func (o *Orchestrator) discover(ctx context.Context, r *run, version string) []step {
	start := o.now()
	cands, err := o.resolver.ListModels(ctx, version)
	d := Discovery{APIVersion: version, Listed: len(cands), Err: err}

	var ranked []model.Candidate
	if err == nil {
		ranked = model.Rank(cands, o.policy.CurrentGeneration)
		d.Usable = len(ranked)
		if len(ranked) == 0 {
			d.Err = &model.DiscoveryError{APIVersion: version, Err: ErrNoGenerationModels}
		}
	}
	d.Elapsed = o.now().Sub(start)
	o.record(func(rec Recorder) { rec.RecordDiscovery(ctx, r.id, d) })

	if d.Err != nil {
		r.last = d.Err
		r.log.Warn().Err(d.Err).Str("api_version", version).Msg("discovery failed, continuing")
		return nil
	}
	r.log.Debug().Str("api_version", version).Int("usable", d.Usable).Msg("discovery ranked candidates")
	return discoveredSteps(ranked)
}

func (o *Orchestrator) attempt(ctx context.Context, r *run, s step, prompt string) (string, error) {
	r.attempts++
	start := o.now()
	text, err := o.invoker.Generate(ctx, s.candidate, prompt, o.policy.AttemptTimeout)
	a := Attempt{
		Seq:       r.attempts,
		Phase:     s.phase,
		Candidate: s.candidate,
		Err:       err,
		Elapsed:   o.now().Sub(start),
	}
	o.record(func(rec Recorder) { rec.RecordAttempt(ctx, r.id, a) })

	if err != nil {
		r.last = err
		r.log.Warn().
			Err(err).
			Str("candidate", s.candidate.String()).
			Str("phase", string(s.phase)).
			Str("kind", model.Kind(err)).
			Dur("elapsed", a.Elapsed).
			Msg("model attempt failed")
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) record(fn func(Recorder)) {
	if o.recorder != nil {
		fn(o.recorder)
	}
}

// Recorders fans out to several recorders, skipping nils.
func Recorders(rs ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type multiRecorder []Recorder

func (m multiRecorder) RecordDiscovery(ctx context.Context, runID uuid.UUID, d Discovery) {
	for _, r := range m {
		r.RecordDiscovery(ctx, runID, d)
	}
}

func (m multiRecorder) RecordAttempt(ctx context.Context, runID uuid.UUID, a Attempt) {
	for _, r := range m {
		r.RecordAttempt(ctx, runID, a)
	}
}

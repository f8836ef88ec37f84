package fallback

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeInvoker answers per candidate string ("v1beta/gemini-pro"); any
// candidate without an entry fails with a 404.
type fakeInvoker struct {
	clock   *fakeClock
	cost    time.Duration
	answers map[string]string
	errs    map[string]error
	calls   []string
	budgets []time.Duration
}

func (f *fakeInvoker) Generate(ctx context.Context, c model.Candidate, prompt string, budget time.Duration) (string, error) {
	f.calls = append(f.calls, c.String())
	f.budgets = append(f.budgets, budget)
	if f.clock != nil {
		f.clock.Advance(f.cost)
	}
	if err, ok := f.errs[c.String()]; ok {
		return "", err
	}
	if text, ok := f.answers[c.String()]; ok {
		return text, nil
	}
	return "", &model.UpstreamError{StatusCode: http.StatusNotFound, Status: "404 Not Found", Body: c.String() + " not found"}
}

type fakeResolver struct {
	listings map[string][]model.Candidate
	errs     map[string]error
	calls    []string
}

func (f *fakeResolver) ListModels(ctx context.Context, v string) ([]model.Candidate, error) {
	f.calls = append(f.calls, v)
	if err, ok := f.errs[v]; ok {
		return nil, err
	}
	return f.listings[v], nil
}

type capturingRecorder struct {
	attempts    []Attempt
	discoveries []Discovery
	runIDs      map[uuid.UUID]bool
}

func (c *capturingRecorder) RecordDiscovery(ctx context.Context, id uuid.UUID, d Discovery) {
	c.discoveries = append(c.discoveries, d)
	c.mark(id)
}

func (c *capturingRecorder) RecordAttempt(ctx context.Context, id uuid.UUID, a Attempt) {
	c.attempts = append(c.attempts, a)
	c.mark(id)
}

func (c *capturingRecorder) mark(id uuid.UUID) {
	if c.runIDs == nil {
		c.runIDs = map[uuid.UUID]bool{}
	}
	c.runIDs[id] = true
}

func discoveryDown() *fakeResolver {
	return &fakeResolver{errs: map[string]error{
		"v1beta": &model.DiscoveryError{APIVersion: "v1beta", Err: errors.New("boom")},
		"v1":     &model.DiscoveryError{APIVersion: "v1", Err: errors.New("boom")},
	}}
}

func testPolicy() Policy {
	return Policy{
		APIVersions:       []string{"v1beta", "v1"},
		PreferredModels:   []string{"gemini-2.5-flash", "gemini-pro"},
		CurrentGeneration: "2.5-",
		GlobalDeadline:    55 * time.Second,
		AttemptTimeout:    20 * time.Second,
	}
}

func gen(version string, names ...string) []model.Candidate {
	out := make([]model.Candidate, len(names))
	for i, n := range names {
		out[i] = model.Candidate{Name: "models/" + n, APIVersion: version, SupportsGeneration: true}
	}
	return out
}

func TestRunFirstCandidateSucceeds(t *testing.T) {
	inv := &fakeInvoker{answers: map[string]string{"v1beta/gemini-2.5-pro": "**Your plan**"}}
	res := &fakeResolver{listings: map[string][]model.Candidate{
		"v1beta": gen("v1beta", "gemini-2.0-flash", "gemini-2.5-pro"),
	}}

	out, err := New(inv, res, testPolicy()).Run(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "**Your plan**", out.Text)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{"v1beta/gemini-2.5-pro"}, inv.calls)
	assert.Equal(t, []string{"v1beta"}, res.calls, "no further discovery after success")
	assert.Equal(t, []time.Duration{20 * time.Second}, inv.budgets)
}

func TestRunStopsAfterFirstSuccess(t *testing.T) {
	timeout := &model.TimeoutError{Budget: 20 * time.Second}
	inv := &fakeInvoker{
		errs: map[string]error{
			"v1beta/gemini-2.5-pro":   timeout,
			"v1beta/gemini-2.5-flash": &model.EmptyResponseError{},
		},
		answers: map[string]string{
			"v1beta/gemini-2.0-flash": "plan",
			"v1beta/gemini-1.0-pro":   "never",
		},
	}
	res := &fakeResolver{listings: map[string][]model.Candidate{
		"v1beta": gen("v1beta", "gemini-2.5-pro", "gemini-2.0-flash", "gemini-1.0-pro", "gemini-2.5-flash"),
	}}

	out, err := New(inv, res, testPolicy()).Run(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "plan", out.Text)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, []string{
		"v1beta/gemini-2.5-pro",
		"v1beta/gemini-2.5-flash",
		"v1beta/gemini-2.0-flash",
	}, inv.calls)
}

func TestRunDiscoveryDownFallsThroughToStaticList(t *testing.T) {
	inv := &fakeInvoker{answers: map[string]string{"v1/gemini-2.5-flash": "static plan"}}
	res := discoveryDown()

	out, err := New(inv, res, testPolicy()).Run(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "static plan", out.Text)
	assert.Equal(t, []string{"v1beta", "v1"}, res.calls)
	assert.Equal(t, []string{
		"v1beta/gemini-2.5-flash",
		"v1beta/gemini-pro",
		"v1/gemini-2.5-flash",
	}, inv.calls)
}

func TestRunDiscoveryWithoutUsableModelsIsSkipped(t *testing.T) {
	inv := &fakeInvoker{answers: map[string]string{"v1/gemini-2.0-flash": "ok"}}
	res := &fakeResolver{listings: map[string][]model.Candidate{
		"v1beta": {{Name: "models/embedding-001", APIVersion: "v1beta"}},
		"v1":     gen("v1", "gemini-2.0-flash"),
	}}
	rec := &capturingRecorder{}

	out, err := New(inv, res, testPolicy(), WithRecorder(rec)).Run(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, []string{"v1/gemini-2.0-flash"}, inv.calls)
	require.Len(t, rec.discoveries, 2)
	assert.ErrorIs(t, rec.discoveries[0].Err, ErrNoGenerationModels)
	assert.Equal(t, 1, rec.discoveries[0].Listed)
	assert.Equal(t, 1, rec.discoveries[1].Usable)
}

func TestRunExhaustedKeepsLastError(t *testing.T) {
	last := &model.UpstreamError{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests", Body: "quota"}
	inv := &fakeInvoker{errs: map[string]error{"v1/gemini-pro": last}}

	_, err := New(inv, discoveryDown(), testPolicy()).Run(context.Background(), "prompt")

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Same(t, last, exhausted.Last)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Len(t, inv.calls, 4)
	assert.True(t, model.IsUpstreamError(err))
	assert.Contains(t, err.Error(), "all model attempts failed")
	assert.Contains(t, err.Error(), "quota")
}

func TestRunDeadlineStopsNewAttempts(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	lastErr := &model.TimeoutError{Budget: 20 * time.Second}
	inv := &fakeInvoker{
		clock: clock,
		cost:  20 * time.Second,
		errs:  map[string]error{"v1beta/gemini-pro": lastErr},
	}
	policy := testPolicy()
	policy.PreferredModels = []string{"gemini-2.5-flash", "gemini-pro", "gemini-1.0-pro", "gemini-x"}

	_, err := New(inv, discoveryDown(), policy, WithClock(clock.Now)).Run(context.Background(), "prompt")

	// attempts start at t=0, 20s, 40s; the one finishing at 60s is allowed
	// to complete but nothing starts afterwards
	assert.Equal(t, []string{
		"v1beta/gemini-2.5-flash",
		"v1beta/gemini-pro",
		"v1beta/gemini-1.0-pro",
	}, inv.calls)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.True(t, model.IsUpstreamError(exhausted.Last), "last real failure, got %v", exhausted.Last)
	assert.NotErrorIs(t, err, ErrDeadline)
}

func TestRunDeadlineBeforeAnyAttempt(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	policy := testPolicy()
	policy.GlobalDeadline = -time.Second
	inv := &fakeInvoker{}
	res := &fakeResolver{}

	_, err := New(inv, res, policy, WithClock(clock.Now)).Run(context.Background(), "prompt")

	assert.ErrorIs(t, err, ErrDeadline)
	assert.True(t, IsExhausted(err))
	assert.Empty(t, inv.calls)
	assert.Empty(t, res.calls)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := &fakeInvoker{}

	_, err := New(inv, discoveryDown(), testPolicy()).Run(ctx, "prompt")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inv.calls)
}

func TestRunRecordsEveryAttempt(t *testing.T) {
	inv := &fakeInvoker{answers: map[string]string{"v1beta/gemini-pro": "ok"}}
	rec := &capturingRecorder{}

	_, err := New(inv, discoveryDown(), testPolicy(), WithRecorder(Recorders(rec, nil))).Run(context.Background(), "prompt")

	require.NoError(t, err)
	require.Len(t, rec.attempts, 2)
	assert.Equal(t, 1, rec.attempts[0].Seq)
	assert.Equal(t, PhaseStatic, rec.attempts[0].Phase)
	assert.True(t, model.IsUpstreamError(rec.attempts[0].Err))
	assert.NoError(t, rec.attempts[1].Err)
	assert.Len(t, rec.discoveries, 2)
	assert.Len(t, rec.runIDs, 1, "one run id per run")
}

func TestRunIsRepeatable(t *testing.T) {
	res := &fakeResolver{listings: map[string][]model.Candidate{
		"v1beta": gen("v1beta", "gemini-pro", "gemini-2.5-flash"),
		"v1":     gen("v1", "gemini-2.5-pro"),
	}}
	o := New(&fakeInvoker{}, res, testPolicy())

	first := &fakeInvoker{}
	o.invoker = first
	_, _ = o.Run(context.Background(), "p")

	second := &fakeInvoker{}
	o.invoker = second
	_, _ = o.Run(context.Background(), "p")

	assert.Equal(t, first.calls, second.calls)
	assert.Equal(t, []string{
		"v1beta/gemini-2.5-flash",
		"v1beta/gemini-pro",
		"v1/gemini-2.5-pro",
		"v1beta/gemini-2.5-flash",
		"v1beta/gemini-pro",
		"v1/gemini-2.5-flash",
		"v1/gemini-pro",
	}, first.calls)
}

func TestRunWithoutCandidates(t *testing.T) {
	_, err := New(&fakeInvoker{}, &fakeResolver{}, Policy{GlobalDeadline: time.Minute}).Run(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoCandidates)
}

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
	"github.com/actuallystonmai/fitness-plan-service/internal/fallback"
	"github.com/actuallystonmai/fitness-plan-service/internal/handler"
	"github.com/actuallystonmai/fitness-plan-service/internal/metrics"
)

type stubService struct{}

func (stubService) GeneratePlan(context.Context, domain.UserProfile) (*fallback.Result, error) {
	return &fallback.Result{Text: "plan"}, nil
}

func (stubService) ModelStats(context.Context, int) (*domain.ModelStatsResponse, error) {
	return &domain.ModelStatsResponse{Models: []domain.ModelStat{}}, nil
}

func newTestRouter() http.Handler {
	h := handler.NewHandler(stubService{}, zerolog.Nop())
	return Setup(h, Options{
		AllowedOrigins: []string{"https://app.example.com"},
		RequestTimeout: time.Minute,
		Logger:         zerolog.Nop(),
	})
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGeneratePlanRoute(t *testing.T) {
	body := `{"age":30,"biologicalSex":"male","height":180,"weight":80,` +
		`"fitnessExperience":"advanced","fitnessGoals":"endurance"}`
	counter := metrics.RequestCount.WithLabelValues(http.MethodPost, "/api/generate-plan", "200")
	before := testutil.ToFloat64(counter)

	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodPost, "/api/generate-plan", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"plan":"plan"}`, rec.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestGeneratePlanRouteWrongMethod(t *testing.T) {
	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodGet, "/api/generate-plan", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())
}

func TestKnownRouteWrongMethod(t *testing.T) {
	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodPost, "/api/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/generate-plan", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serve(newTestRouter(), req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAttemptStatsRoute(t *testing.T) {
	rec := serve(newTestRouter(), httptest.NewRequest(http.MethodGet, "/api/attempts/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"window_hours":0,"models":[],"generated_at":""}`, rec.Body.String())
}

func TestRecovererWritesErrorEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Use(recoverer(zerolog.Nop()))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("nil profile")
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"Internal server error","details":"unexpected server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "nil profile")
}

func TestRecovererRethrowsAbort(t *testing.T) {
	h := recoverer(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

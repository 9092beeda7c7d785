package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/pipeline"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/errors"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
)

type fakeService struct {
	report *domain.Report
	err    error
	calls  int
	last   pipeline.Request
}

func (f *fakeService) Run(_ context.Context, req pipeline.Request) (*domain.Report, error) {
	f.calls++
	f.last = req
	return f.report, f.err
}

func newTestRouter(svc pipeline.Service, apiKey string) http.Handler {
	cfg := &config.Config{}
	cfg.App.ServiceAPIKey = apiKey
	return NewRouter(NewHandler(Opts{Service: svc, Config: cfg, Logger: logger.NewNop()}))
}

func emptyReport() *domain.Report {
	return &domain.Report{
		Findings: []domain.Finding{},
		Metadata: domain.ReportMetadata{Query: "bmw", QueryKind: "hashtag"},
	}
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"hashtag":"bmw","ai_analysis_prompt":"find purchase intent signals"}`

func TestAnalyzeHashtagHappyPath(t *testing.T) {
	svc := &fakeService{report: emptyReport()}
	router := newTestRouter(svc, "")

	rec := post(t, router, "/api/v1/analysis/hashtag", validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, domain.QueryHashtag, svc.last.Query.Kind)
	assert.Equal(t, "bmw", svc.last.Query.Value)
	assert.Equal(t, "find purchase intent signals", svc.last.Instructions)

	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "bmw", report.Metadata.Query)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnalyzeRoutesSelectQueryKind(t *testing.T) {
	svc := &fakeService{report: emptyReport()}
	router := newTestRouter(svc, "")

	rec := post(t, router, "/api/v1/analysis/account",
		`{"username":"driver","ai_analysis_prompt":"what do viewers think"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.QueryAccount, svc.last.Query.Kind)
	assert.Equal(t, "driver", svc.last.Query.Value)

	rec = post(t, router, "/api/v1/analysis/search",
		`{"keyword":"car review","ai_analysis_prompt":"what do viewers think"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.QuerySearch, svc.last.Query.Kind)
	assert.Equal(t, "car review", svc.last.Query.Value)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing prompt", `{"hashtag":"bmw"}`},
		{"prompt too short", `{"hashtag":"bmw","ai_analysis_prompt":"short"}`},
		{"missing target", `{"ai_analysis_prompt":"find purchase intent signals"}`},
		{"hashtag with bad characters", `{"hashtag":"no spaces!","ai_analysis_prompt":"find purchase intent signals"}`},
		{"posts count too high", `{"hashtag":"bmw","posts_count":100,"ai_analysis_prompt":"find purchase intent signals"}`},
		{"quote length too low", `{"hashtag":"bmw","max_quote_length":5,"ai_analysis_prompt":"find purchase intent signals"}`},
	}

	svc := &fakeService{report: emptyReport()}
	router := newTestRouter(svc, "")

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, router, "/api/v1/analysis/hashtag", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Equal(t, 0, svc.calls)
}

func TestAPIKeyAuth(t *testing.T) {
	svc := &fakeService{report: emptyReport()}
	router := newTestRouter(svc, "secret-key")

	// no key
	rec := post(t, router, "/api/v1/analysis/hashtag", validBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// wrong key
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/hashtag", strings.NewReader(validBody))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// right key
	req = httptest.NewRequest(http.MethodPost, "/api/v1/analysis/hashtag", strings.NewReader(validBody))
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	router := newTestRouter(&fakeService{}, "secret-key")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", errors.Wrap(errors.ErrValidation, "bad input"), http.StatusBadRequest},
		{"rate limited", &provider.Error{Endpoint: "listing", StatusCode: 429, Message: "throttled"}, http.StatusTooManyRequests},
		{"collection", errors.Wrap(errors.ErrCollection, "upstream down"), http.StatusBadGateway},
		{"analysis", errors.Wrap(errors.ErrAnalysis, "model down"), http.StatusServiceUnavailable},
		{"unknown", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{err: tc.err}
			router := newTestRouter(svc, "")

			rec := post(t, router, "/api/v1/analysis/hashtag", validBody)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRateLimitedRunsAreRetried(t *testing.T) {
	svc := &fakeService{err: &provider.Error{Endpoint: "listing", StatusCode: 429, Message: "throttled"}}
	router := newTestRouter(svc, "")

	rec := post(t, router, "/api/v1/analysis/hashtag", validBody)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	// initial attempt plus backoff retries
	assert.Greater(t, svc.calls, 1)
}

func TestNonRetryableErrorsRunOnce(t *testing.T) {
	svc := &fakeService{err: errors.Wrap(errors.ErrCollection, "upstream down")}
	router := newTestRouter(svc, "")

	rec := post(t, router, "/api/v1/analysis/hashtag", validBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, svc.calls)
}

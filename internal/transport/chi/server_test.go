package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/catsearch/internal/domain"
	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
	"github.com/kailas-cloud/catsearch/internal/metrics"
	"github.com/kailas-cloud/catsearch/internal/render"
	healthuc "github.com/kailas-cloud/catsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/catsearch/internal/usecase/search"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	err    error
	calls  int
	gotArg string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.gotArg = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 7}, nil
}

type mockMatcher struct {
	set          result.Set
	err          error
	calls        int
	gotThreshold float64
	gotLimit     int
}

func (m *mockMatcher) Match(_ context.Context, _ []float32, threshold float64, limit int) (result.Set, error) {
	m.calls++
	m.gotThreshold = threshold
	m.gotLimit = limit
	return m.set, m.err
}

type mockChecker struct{ err error }

func (m mockChecker) HealthCheck(context.Context) error { return m.err }

func newTestRouter(t *testing.T, emb *mockEmbedder, match *mockMatcher, hc *healthuc.Service) http.Handler {
	t.Helper()
	if hc == nil {
		hc = healthuc.New(mockChecker{}, mockChecker{}, nil)
	}
	srv, err := NewServer(searchuc.New(emb, match), hc, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func groundworks() result.Set {
	return result.Set{result.New(map[string]any{"asset": "Groundworks", "similarity": 0.87})}
}

// --- API ---

func TestSearchCategories_OK(t *testing.T) {
	emb := &mockEmbedder{}
	match := &mockMatcher{set: groundworks()}
	h := newTestRouter(t, emb, match, nil)

	body := `{"query":"concrete or external groundwork","threshold":0.2,"limit":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Embedding-Tokens") != "7" {
		t.Errorf("X-Embedding-Tokens = %q", w.Header().Get("X-Embedding-Tokens"))
	}

	var resp render.Payload
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Empty {
		t.Errorf("unexpected payload: %+v", resp)
	}
	if resp.Items[0].Label != "1. Groundworks - Similarity: 0.8700" {
		t.Errorf("label = %q", resp.Items[0].Label)
	}
	if resp.Items[0].Row["asset"] != "Groundworks" {
		t.Errorf("row = %v", resp.Items[0].Row)
	}
	if match.gotThreshold != 0.2 || match.gotLimit != 10 {
		t.Errorf("match got threshold=%v limit=%d", match.gotThreshold, match.gotLimit)
	}
}

func TestSearchCategories_DefaultsAndClamp(t *testing.T) {
	match := &mockMatcher{set: result.Set{}}
	h := newTestRouter(t, &mockEmbedder{}, match, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"roof","limit":500}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if match.gotThreshold != request.DefaultThreshold {
		t.Errorf("threshold = %v, want default", match.gotThreshold)
	}
	if match.gotLimit != request.MaxLimit {
		t.Errorf("limit = %d, want clamped to %d", match.gotLimit, request.MaxLimit)
	}

	var resp render.Payload
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Empty || resp.Message != render.EmptyMessage || resp.Total != 0 {
		t.Errorf("expected empty payload, got %+v", resp)
	}
}

func TestSearchCategories_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"missing query", `{"limit":3}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			emb := &mockEmbedder{}
			h := newTestRouter(t, emb, &mockMatcher{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if emb.calls != 0 {
				t.Error("embedder must not be called for a bad request")
			}
			var resp ErrorResponse
			_ = json.NewDecoder(w.Body).Decode(&resp)
			if resp.Code != CodeBadRequest {
				t.Errorf("code = %q", resp.Code)
			}
		})
	}
}

func TestSearchCategories_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		embErr   error
		matchErr error
		wantCode string
	}{
		{"embedding", errors.New("401 unauthorized"), nil, CodeEmbeddingServiceError},
		{"search", nil, errors.New("function does not exist"), CodeSearchServiceError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t, &mockEmbedder{err: tc.embErr}, &mockMatcher{err: tc.matchErr}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"x"}`))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusBadGateway {
				t.Errorf("expected 502, got %d", w.Code)
			}
			var resp ErrorResponse
			_ = json.NewDecoder(w.Body).Decode(&resp)
			if resp.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tc.wantCode)
			}
			if strings.Contains(resp.Message, "unauthorized") || strings.Contains(resp.Message, "does not exist") {
				t.Errorf("message leaks internals: %q", resp.Message)
			}
		})
	}
}

// --- Page ---

func TestSearchPage_FirstLoadRunsDefault(t *testing.T) {
	emb := &mockEmbedder{}
	match := &mockMatcher{set: groundworks()}
	h := newTestRouter(t, emb, match, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if emb.gotArg != request.DefaultQuery {
		t.Errorf("embedded %q, want default query", emb.gotArg)
	}
	body := w.Body.String()
	for _, want := range []string{
		"<summary>1. Groundworks - Similarity: 0.8700</summary>",
		`step="0.05"`,
		`max="50"`,
		"How it works",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestSearchPage_EmptyQueryNoButton(t *testing.T) {
	emb := &mockEmbedder{}
	h := newTestRouter(t, emb, &mockMatcher{}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=&threshold=0.3&limit=5", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if emb.calls != 0 {
		t.Error("no search expected without query or button")
	}
	if strings.Contains(w.Body.String(), "<details>") {
		t.Error("no results expected")
	}
}

func TestSearchPage_EmptyQueryWithButton(t *testing.T) {
	emb := &mockEmbedder{}
	h := newTestRouter(t, emb, &mockMatcher{set: result.Set{}}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=&search=1", http.NoBody))

	if emb.calls != 1 {
		t.Fatalf("expected one search, got %d", emb.calls)
	}
	if emb.gotArg != "" {
		t.Errorf("query must pass through unchanged, got %q", emb.gotArg)
	}
	if !strings.Contains(w.Body.String(), render.EmptyMessage) {
		t.Error("expected empty message")
	}
}

func TestSearchPage_FormValuesClamped(t *testing.T) {
	match := &mockMatcher{set: result.Set{}}
	h := newTestRouter(t, &mockEmbedder{}, match, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=roof&threshold=1.5&limit=abc", http.NoBody))

	if match.gotThreshold != 1 {
		t.Errorf("threshold = %v, want 1", match.gotThreshold)
	}
	if match.gotLimit != request.DefaultLimit {
		t.Errorf("limit = %d, want default", match.gotLimit)
	}
}

func TestSearchPage_ErrorBanner(t *testing.T) {
	match := &mockMatcher{}
	h := newTestRouter(t, &mockEmbedder{err: errors.New("secret upstream detail")}, match, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=roof", http.NoBody))

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `role="alert"`) || !strings.Contains(body, domain.ErrEmbeddingService.Error()) {
		t.Error("expected error banner")
	}
	if strings.Contains(body, "secret upstream detail") {
		t.Error("banner leaks internals")
	}
	if match.calls != 0 {
		t.Error("match must not run after embedding failure")
	}
}

func TestSearchPage_EscapesQuery(t *testing.T) {
	h := newTestRouter(t, &mockEmbedder{}, &mockMatcher{set: result.Set{}}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, `/?q=%22%3E%3Cscript%3E`, http.NoBody))

	if strings.Contains(w.Body.String(), `"><script>`) {
		t.Error("query must be escaped")
	}
}

// --- Health & metrics ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"degraded", errors.New("down"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hc := healthuc.New(mockChecker{err: tc.dbErr}, mockChecker{}, nil)
			h := newTestRouter(t, &mockEmbedder{}, &mockMatcher{}, hc)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if w.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			var resp HealthResponse
			_ = json.NewDecoder(w.Body).Decode(&resp)
			if resp.Status != tc.wantBody {
				t.Errorf("status = %q, want %q", resp.Status, tc.wantBody)
			}
			if _, ok := resp.Checks[healthuc.ComponentDatabase]; !ok {
				t.Error("expected database check")
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, &mockEmbedder{}, &mockMatcher{}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected default collectors in exposition")
	}
}

func TestErrorStatus_MatchesHandlerTable(t *testing.T) {
	srv, err := NewServer(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cases := []error{errors.New("unmapped")}
	for _, de := range domainErrors {
		cases = append(cases, fmt.Errorf("wrapped: %w", de.sentinel))
	}
	for _, e := range cases {
		w := httptest.NewRecorder()
		srv.handleDomainError(w, e)
		if got := errorStatus(e); got != w.Code {
			t.Errorf("errorStatus(%v) = %d, handler wrote %d", e, got, w.Code)
		}
	}
}

func TestSearchPage_FooterGuidance(t *testing.T) {
	h := newTestRouter(t, &mockEmbedder{}, &mockMatcher{set: groundworks()}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	body := w.Body.String()
	for _, want := range []string{
		"Search Results",
		"Higher threshold = more strict matching",
		"Lower threshold = more results, but possibly less relevant",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catsearch/internal/domain"
	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	"github.com/kailas-cloud/catsearch/internal/render"
	healthuc "github.com/kailas-cloud/catsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/catsearch/internal/usecase/search"
)

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest            = "bad_request"
	CodeEmbeddingServiceError = "embedding_service_error"
	CodeSearchServiceError    = "search_service_error"
	CodeInternalError         = "internal_error"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the JSON body of POST /api/v1/search.
// Missing threshold and limit take the page defaults.
type SearchRequest struct {
	Query     *string  `json:"query"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// domainErrors maps domain sentinels to HTTP status and error code.
// Both the JSON API and the page derive their status from it.
var domainErrors = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest},
	{domain.ErrEmbeddingService, http.StatusBadGateway, CodeEmbeddingServiceError},
	{domain.ErrSearchService, http.StatusBadGateway, CodeSearchServiceError},
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search page and the JSON API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	page          *pageRenderer
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server. It fails only if the page templates do not parse.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := newPageRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{
		search: search,
		health: health,
		page:   page,
		logger: logger,
	}
	s.errorHandlers = make([]errorHandler, 0, len(domainErrors))
	for _, de := range domainErrors {
		s.errorHandlers = append(s.errorHandlers, sentinelHandler(de.sentinel, de.status, de.code))
	}
	return s, nil
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.SearchPage)
	r.Post("/api/v1/search", s.SearchCategories)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchCategories handles POST /api/v1/search.
func (s *Server) SearchCategories(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Query == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query is required")
		return
	}

	threshold := request.DefaultThreshold
	if body.Threshold != nil {
		threshold = *body.Threshold
	}
	limit := request.DefaultLimit
	if body.Limit != nil {
		limit = *body.Limit
	}
	req := request.New(*body.Query, threshold, limit)

	ctx, usage := domain.NewContextWithUsage(r.Context())
	set, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	view := render.Build(set)
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, view.Payload())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, de := range domainErrors {
		if errors.Is(err, de.sentinel) {
			return de.sentinel.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// errorStatus returns the status handleDomainError would write for err.
func errorStatus(err error) int {
	for _, de := range domainErrors {
		if errors.Is(err, de.sentinel) {
			return de.status
		}
	}
	return http.StatusInternalServerError
}

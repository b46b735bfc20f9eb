package chi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catsearch/internal/domain"
	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/catsearch/internal/logger"
	"github.com/kailas-cloud/catsearch/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Form fields of the search page.
const (
	formQuery     = "q"
	formThreshold = "threshold"
	formLimit     = "limit"
	formSearch    = "search"
)

type pageRenderer struct {
	templates *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	funcMap := template.FuncMap{
		"formatFloat": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &pageRenderer{templates: tmpl}, nil
}

// pageData is the view model of index.html.
type pageData struct {
	Query     string
	Threshold float64
	Limit     int

	MinThreshold  float64
	MaxThreshold  float64
	ThresholdStep float64
	MinLimit      int
	MaxLimit      int

	Ran   bool
	View  *render.View
	Error string
}

// pageInput reads the form. A visit with no query parameter is the first
// load and gets the default query.
func pageInput(values url.Values) (req request.Request, run bool) {
	query := request.DefaultQuery
	if values.Has(formQuery) {
		query = values.Get(formQuery)
	}
	threshold := request.DefaultThreshold
	if values.Has(formThreshold) {
		threshold = request.ParseThreshold(values.Get(formThreshold))
	}
	limit := request.DefaultLimit
	if values.Has(formLimit) {
		limit = request.ParseLimit(values.Get(formLimit))
	}
	run = query != "" || values.Has(formSearch)
	return request.New(query, threshold, limit), run
}

// SearchPage handles GET /. It re-renders the whole page on every interaction.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	req, run := pageInput(r.URL.Query())

	data := pageData{
		Query:         req.Query(),
		Threshold:     req.Threshold(),
		Limit:         req.Limit(),
		MinThreshold:  request.MinThreshold,
		MaxThreshold:  request.MaxThreshold,
		ThresholdStep: request.ThresholdStep,
		MinLimit:      request.MinLimit,
		MaxLimit:      request.MaxLimit,
		Ran:           run,
	}

	status := http.StatusOK
	if run {
		ctx := logpkg.WithFields(r.Context(), zap.String("surface", "page"))
		ctx, usage := domain.NewContextWithUsage(ctx)
		set, err := s.search.Search(ctx, &req)
		if err != nil {
			s.logger.Warn("search page error", zap.Error(err))
			data.Error = safeDomainMessage(err)
			status = errorStatus(err)
		} else {
			view := render.Build(set)
			data.View = &view
			setEmbeddingHeaders(w, usage)
		}
	}

	var buf bytes.Buffer
	if err := s.page.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("render page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

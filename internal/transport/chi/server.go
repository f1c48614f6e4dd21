// Package chi exposes the dossier HTTP API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
	"github.com/kailas-cloud/fcdex/internal/domain/label"
	"github.com/kailas-cloud/fcdex/internal/metrics"
	fcsuc "github.com/kailas-cloud/fcdex/internal/usecase/fcs"
	healthuc "github.com/kailas-cloud/fcdex/internal/usecase/health"
	labelsuc "github.com/kailas-cloud/fcdex/internal/usecase/labels"
	searchuc "github.com/kailas-cloud/fcdex/internal/usecase/search"
)

// ErrorCode identifies a machine-readable error class in responses.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeNotFound         ErrorCode = "not_found"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the use case services behind the dossier HTTP surface.
type Server struct {
	fcs            *fcsuc.Service
	search         *searchuc.Service
	labels         *labelsuc.Service
	health         *healthuc.Service
	logger         *zap.Logger
	defaultPerPage int
	maxPerPage     int
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	fcs *fcsuc.Service,
	search *searchuc.Service,
	labels *labelsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		fcs:            fcs,
		search:         search,
		labels:         labels,
		health:         health,
		logger:         logger,
		defaultPerPage: 2,
		maxPerPage:     500,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUnknownEngine, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUnknownFilter, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUnknownTraversal, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrStoreEmpty, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidCorefValue, http.StatusBadRequest, CodeValidationFailed),
	}
	return s
}

// WithPagination overrides the per-page defaults from configuration.
func (s *Server) WithPagination(def, max int) *Server {
	if def > 0 {
		s.defaultPerPage = def
	}
	if max > 0 {
		s.maxPerPage = max
	}
	return s
}

// Routes builds the router: operational endpoints at the root, the dossier
// API under its versioned prefix.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.getHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/dossier/v1", func(r chi.Router) {
		r.Get("/search_engines", s.listSearchEngines)
		r.Get("/feature-collection/{cid}/search/{engine}", s.runSearch)
		r.Get("/feature-collection/{cid}", s.getFC)
		r.Put("/feature-collection/{cid}", s.putFC)
		r.Get("/random/feature-collection", s.randomFC)
		r.Put("/label/{cid1}/{cid2}/{annotator}", s.putLabel)
		r.Get("/label/{cid}/direct", s.directLabels)
		r.Get("/label/{cid}/positive", s.positiveLabels)
		r.Get("/label/{cid}/negative", s.negativeLabels)
	})
	return r
}

// getHealth handles GET /healthz.
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// listSearchEngines handles GET /dossier/v1/search_engines.
func (s *Server) listSearchEngines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.search.EngineNames())
}

// searchResponse carries one object per result: the engine's info keys plus
// content_id and, unless omitted, the feature collection under fc.
type searchResponse struct {
	Results []map[string]any `json:"results"`
}

// runSearch handles GET /dossier/v1/feature-collection/{cid}/search/{engine}.
//
// Recognized query parameters: limit, filter (repeatable), omit_fc. Every
// other parameter is passed through to the engine untouched.
func (s *Server) runSearch(w http.ResponseWriter, r *http.Request) {
	engine := pathParam(r, "engine")
	cid := pathParam(r, "cid")
	q := r.URL.Query()

	opts := searchuc.Options{Params: map[string]string{}}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}
	omitFC := q.Get("omit_fc") == "1" || q.Get("omit_fc") == "true"
	for key, vals := range q {
		switch key {
		case "limit", "filter", "omit_fc":
			continue
		}
		if len(vals) > 0 {
			opts.Params[key] = vals[0]
		}
	}

	results, err := s.search.Search(r.Context(), engine, cid, q["filter"], opts)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(engine, "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	resp := searchResponse{Results: make([]map[string]any, 0, len(results))}
	for _, res := range results {
		if res.ContentID == "" {
			metrics.SearchRequestsTotal.WithLabelValues(engine, "error").Inc()
			s.handleDomainError(w, fmt.Errorf("%w: engine %s returned a result without a content id",
				domain.ErrInvalidResult, engine))
			return
		}
		item := make(map[string]any, len(res.Info)+2)
		for k, v := range res.Info {
			item[k] = v
		}
		item["content_id"] = res.ContentID
		if !omitFC {
			item["fc"] = res.FC
		}
		resp.Results = append(resp.Results, item)
	}

	metrics.SearchRequestsTotal.WithLabelValues(engine, "ok").Inc()
	metrics.SearchResultsReturned.WithLabelValues(engine).Observe(float64(len(resp.Results)))
	writeJSON(w, http.StatusOK, resp)
}

// getFC handles GET /dossier/v1/feature-collection/{cid}.
func (s *Server) getFC(w http.ResponseWriter, r *http.Request) {
	f, err := s.fcs.Get(r.Context(), pathParam(r, "cid"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// putFC handles PUT /dossier/v1/feature-collection/{cid}. The fingerprint
// query parameter asks the server to compute nilsimsa digests for the
// document's scalar features before storing.
func (s *Server) putFC(w http.ResponseWriter, r *http.Request) {
	var f fc.FeatureCollection
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fp := r.URL.Query().Get("fingerprint")
	fingerprint := fp == "1" || fp == "true"

	if err := s.fcs.Put(r.Context(), pathParam(r, "cid"), f, fingerprint); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// randomFC handles GET /dossier/v1/random/feature-collection. The response
// is a [content_id, feature_collection] pair.
func (s *Server) randomFC(w http.ResponseWriter, r *http.Request) {
	cid, f, err := s.fcs.Random(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, [2]any{cid, f})
}

// putLabel handles PUT /dossier/v1/label/{cid1}/{cid2}/{annotator}. The
// request body is the coreference value: -1, 0, or 1.
func (s *Server) putLabel(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read request body")
		return
	}

	q := r.URL.Query()
	lab, err := s.labels.Put(r.Context(),
		pathParam(r, "cid1"),
		pathParam(r, "cid2"),
		pathParam(r, "annotator"),
		strings.TrimSpace(string(body)),
		q.Get("subtopic_id1"),
		q.Get("subtopic_id2"),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	metrics.LabelsStoredTotal.WithLabelValues(strconv.Itoa(int(lab.Value))).Inc()
	writeJSON(w, http.StatusCreated, lab)
}

// directLabels handles GET /dossier/v1/label/{cid}/direct.
func (s *Server) directLabels(w http.ResponseWriter, r *http.Request) {
	labs, err := s.labels.Direct(r.Context(), pathParam(r, "cid"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.writePage(w, r, labs)
}

// positiveLabels handles GET /dossier/v1/label/{cid}/positive. The method
// query parameter selects the traversal: connected (default) or expanded.
func (s *Server) positiveLabels(w http.ResponseWriter, r *http.Request) {
	labs, err := s.labels.Positive(r.Context(), pathParam(r, "cid"), r.URL.Query().Get("method"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.writePage(w, r, labs)
}

// negativeLabels handles GET /dossier/v1/label/{cid}/negative.
func (s *Server) negativeLabels(w http.ResponseWriter, r *http.Request) {
	labs, err := s.labels.Negative(r.Context(), pathParam(r, "cid"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.writePage(w, r, labs)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, labs []label.Label) {
	items, links := paginate(r, labs, s.defaultPerPage, s.maxPerPage)
	if len(links) > 0 {
		w.Header().Set("Link", strings.Join(links, ", "))
	}
	writeJSON(w, http.StatusOK, items)
}

// paginate slices items for the page/perpage query parameters and builds
// the RFC 5988 Link header values. A next link is always emitted, even past
// the end of the data: clients walk forward until they receive an empty
// page. first and prev appear from the second page on.
func paginate[T any](r *http.Request, items []T, defaultPerPage, maxPerPage int) ([]T, []string) {
	q := r.URL.Query()

	page := queryInt(q, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(q, "perpage", defaultPerPage)
	if perPage < 1 {
		perPage = 1
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	var links []string
	if page > 1 {
		links = append(links,
			pageLink(r.URL, 1, perPage, "first"),
			pageLink(r.URL, page-1, perPage, "prev"),
		)
	}
	links = append(links, pageLink(r.URL, page+1, perPage, "next"))

	// Slices of zero length still encode as [], not null.
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return out, links
}

func pageLink(u *url.URL, page, perPage int, rel string) string {
	link := *u
	q := link.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("perpage", strconv.Itoa(perPage))
	link.RawQuery = q.Encode()
	return fmt.Sprintf("<%s>; rel=%q", link.String(), rel)
}

func queryInt(q url.Values, key string, def int) int {
	raw := q.Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// pathParam returns the decoded URL parameter. Content ids may contain
// characters like "|" that arrive percent-encoded.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage exposes sentinel text only; anything else could leak
// internals and is reported as a generic internal error.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrUnknownEngine,
		domain.ErrUnknownFilter,
		domain.ErrUnknownTraversal,
		domain.ErrStoreEmpty,
		domain.ErrInvalidCorefValue,
		domain.ErrInvalidResult,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
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

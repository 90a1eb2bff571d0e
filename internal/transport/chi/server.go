// Package chi serves the blastr HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
	"github.com/villabioinfo/BLASTr/internal/domain/tool"
	healthuc "github.com/villabioinfo/BLASTr/internal/usecase/health"
)

const (
	defaultMaxQueries = 10000
	maxBodyBytes      = 64 << 20
	entrezPackage     = "entrez-direct"
)

// Config holds per-deployment defaults applied to requests.
type Config struct {
	// Search holds the parameters used when a request leaves them unset.
	// Database may be empty, in which case requests must name one.
	Search params.Input
	// Workers is the default worker budget per batch.
	Workers int
	// MaxWorkers caps the worker budget a request may ask for.
	MaxWorkers int
	// MaxQueries caps the sequences per search request.
	MaxQueries int
	// EntrezEnv is the default environment for efetch.
	EntrezEnv string
}

// Server handles the blastr HTTP API.
type Server struct {
	batch  BatchRunner
	envs   EnvEnsurer
	fetch  RecordFetcher
	health HealthChecker
	cfg    Config
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	batch BatchRunner,
	envs EnvEnsurer,
	fetch RecordFetcher,
	health HealthChecker,
	cfg Config,
	logger *zap.Logger,
) *Server {
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = defaultMaxQueries
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxWorkers < cfg.Workers {
		cfg.MaxWorkers = cfg.Workers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{batch: batch, envs: envs, fetch: fetch, health: health, cfg: cfg, logger: logger}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/searches", s.CreateSearch)
		r.Get("/records", s.ListRecords)
		r.Post("/environments/{tool}", s.EnsureEnvironment)
	})
}

type searchQuery struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence" validate:"required"`
}

type searchRequest struct {
	Queries         []searchQuery `json:"queries" validate:"required,min=1,dive"`
	Database        string        `json:"database"`
	PercentIdentity *float64      `json:"percent_identity" validate:"omitempty,gte=0,lte=100"`
	QueryCoverage   *float64      `json:"query_coverage" validate:"omitempty,gte=0,lte=100"`
	MaxAlignments   int           `json:"max_alignments" validate:"gte=0"`
	Threads         int           `json:"threads" validate:"gte=0"`
	Workers         int           `json:"workers" validate:"gte=0"`
	Variant         string        `json:"variant"`
	Columns         string        `json:"columns"`
	EnvName         string        `json:"env_name"`
	TimeoutSec      int           `json:"timeout_sec" validate:"gte=0"`
	Verbose         bool          `json:"verbose"`
	// Sort restores input order when the batch ran in parallel.
	Sort bool `json:"sort"`
}

type columnJSON struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type rowJSON struct {
	QueryIndex int    `json:"query_index"`
	QueryID    string `json:"query_id"`
	Status     string `json:"status"`
	Values     []any  `json:"values"`
	Reason     string `json:"reason,omitempty"`
}

type countsJSON struct {
	Hit    int `json:"hit"`
	NoHit  int `json:"no_hit"`
	Failed int `json:"failed"`
}

type searchResponse struct {
	BatchID    string       `json:"batch_id"`
	QueryCount int          `json:"query_count"`
	Columns    []columnJSON `json:"columns"`
	Rows       []rowJSON    `json:"rows"`
	Counts     countsJSON   `json:"counts"`
}

// CreateSearch handles POST /v1/searches. The batch runs synchronously.
func (s *Server) CreateSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := params.Validator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	if len(req.Queries) > s.cfg.MaxQueries {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("queries count must be between 1 and %d", s.cfg.MaxQueries))
		return
	}

	p, err := s.paramsFromRequest(req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	queries, err := queriesFromRequest(req.Queries)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	workers := s.cfg.Workers
	if req.Workers > 0 {
		workers = min(req.Workers, s.cfg.MaxWorkers)
	}

	c, err := s.batch.Run(r.Context(), queries, p, workers)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if req.Sort {
		c = c.SortedByQuery()
	}
	writeJSON(w, http.StatusOK, collectionToJSON(c))
}

func (s *Server) paramsFromRequest(req searchRequest) (params.Params, error) {
	in := s.cfg.Search
	if req.Database != "" {
		in.Database = req.Database
	}
	if req.PercentIdentity != nil {
		in.PercentIdentity = *req.PercentIdentity
	}
	if req.QueryCoverage != nil {
		in.QueryCoverage = *req.QueryCoverage
	}
	if req.MaxAlignments > 0 {
		in.MaxAlignments = req.MaxAlignments
	}
	if req.Threads > 0 {
		in.Threads = req.Threads
	}
	if req.Variant != "" {
		in.Variant = variant.Variant(req.Variant)
	}
	if req.Columns != "" {
		in.Columns = req.Columns
	}
	if req.EnvName != "" {
		in.EnvName = req.EnvName
	}
	if req.TimeoutSec > 0 {
		in.Timeout = time.Duration(req.TimeoutSec) * time.Second
	}
	in.Verbose = req.Verbose
	return params.New(in)
}

func queriesFromRequest(items []searchQuery) ([]query.Query, error) {
	out := make([]query.Query, len(items))
	for i, it := range items {
		q, err := query.New(i, it.ID, it.Sequence)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func collectionToJSON(c *dombatch.Collection) searchResponse {
	cols := c.Schema().Columns()
	resp := searchResponse{
		BatchID:    c.ID(),
		QueryCount: c.QueryCount(),
		Columns:    make([]columnJSON, len(cols)),
		Rows:       make([]rowJSON, 0, c.Len()),
	}
	for i, col := range cols {
		resp.Columns[i] = columnJSON{Name: col.Name(), Kind: string(col.Kind())}
	}
	for _, h := range c.Hits() {
		resp.Rows = append(resp.Rows, rowJSON{
			QueryIndex: h.QueryIndex(),
			QueryID:    h.QueryID(),
			Status:     string(h.Status()),
			Values:     h.Values(),
			Reason:     h.Reason(),
		})
	}
	n := c.Counts()
	resp.Counts = countsJSON{Hit: n.Hit, NoHit: n.NoHit, Failed: n.Failed}
	return resp
}

type recordJSON struct {
	Accession   string `json:"accession"`
	Description string `json:"description"`
	Sequence    string `json:"sequence"`
}

type recordListResponse struct {
	Items []recordJSON `json:"items"`
	Total int          `json:"total"`
}

// ListRecords handles GET /v1/records?accession=...&db=...&verbose=....
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	var (
		accessions []string
		db         string
		verbose    bool
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "accession", q, &accessions); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "db", q, &db); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "verbose", q, &verbose); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	recs, err := s.fetch.Records(r.Context(), db, accessions, verbose)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recordJSON, len(recs))
	for i, rec := range recs {
		items[i] = recordJSON{Accession: rec.Accession(), Description: rec.Description(), Sequence: rec.Sequence()}
	}
	writeJSON(w, http.StatusOK, recordListResponse{Items: items, Total: len(items)})
}

type ensureRequest struct {
	EnvName string `json:"env_name"`
	Force   bool   `json:"force"`
	Verbose bool   `json:"verbose"`
}

type ensureResponse struct {
	Tool   string `json:"tool"`
	Env    string `json:"env"`
	Action string `json:"action"`
}

// EnsureEnvironment handles POST /v1/environments/{tool}. The body is optional.
func (s *Server) EnsureEnvironment(w http.ResponseWriter, r *http.Request) {
	toolName := chi.URLParam(r, "tool")

	var req ensureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	envName := req.EnvName
	if envName == "" {
		envName = s.defaultEnv(toolName)
	}

	action, err := s.envs.Ensure(r.Context(), toolName, envName, req.Verbose, req.Force)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ensureResponse{Tool: toolName, Env: envName, Action: string(action)})
}

func (s *Server) defaultEnv(toolName string) string {
	if pkg, err := tool.Lookup(toolName); err == nil && pkg.Name == entrezPackage && s.cfg.EntrezEnv != "" {
		return s.cfg.EntrezEnv
	}
	return s.cfg.Search.EnvName
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

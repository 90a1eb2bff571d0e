package blastr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/db"
	dbRedis "github.com/villabioinfo/BLASTr/internal/db/redis"
	"github.com/villabioinfo/BLASTr/internal/domain"
	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/record"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/metrics"
	"github.com/villabioinfo/BLASTr/internal/process"
	"github.com/villabioinfo/BLASTr/internal/repository/results"
	"github.com/villabioinfo/BLASTr/internal/repository/searchcache"
	"github.com/villabioinfo/BLASTr/internal/transport/blast"
	"github.com/villabioinfo/BLASTr/internal/transport/conda"
	"github.com/villabioinfo/BLASTr/internal/transport/entrez"
	batchuc "github.com/villabioinfo/BLASTr/internal/usecase/batch"
	envuc "github.com/villabioinfo/BLASTr/internal/usecase/env"
	fetchuc "github.com/villabioinfo/BLASTr/internal/usecase/fetch"
	healthuc "github.com/villabioinfo/BLASTr/internal/usecase/health"
	searchuc "github.com/villabioinfo/BLASTr/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type batchUseCase interface {
	Run(ctx context.Context, queries []query.Query, p params.Params, workers int) (*dombatch.Collection, error)
}

type gateUseCase interface {
	Ensure(ctx context.Context, toolName, envName string, verbose, force bool) (envuc.Action, error)
}

type fetchUseCase interface {
	Records(ctx context.Context, db string, accessions []string, verbose bool) ([]record.Record, error)
}

type sinkUseCase interface {
	Persist(ctx context.Context, c *dombatch.Collection, csvPath, snapshotPath string) error
}

// Client is the blastr entry point.
type Client struct {
	store     db.Store
	batchSvc  batchUseCase
	gateSvc   gateUseCase
	fetchSvc  fetchUseCase
	sink      sinkUseCase
	healthSvc *healthuc.Service
	blastEnv  string
	obs       *observer
}

// New creates a Client. When a cache is configured the provided context
// bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cfg.addrs) > 0 {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("blastr: cache not ready: %w", err)
		}
	}

	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		// rueidis speaks the same protocol to both servers.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("blastr: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("blastr: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	if cfg.blastEnv == "" {
		cfg.blastEnv = domain.DefaultSearchConfig().EnvName
	}
	runner := process.NewExec(cfg.logger)
	pm := conda.NewClient(&conda.Config{
		Binary:   cfg.condaBinary,
		Channels: cfg.channels,
		Runner:   runner,
		Logger:   cfg.logger,
	})

	var aligner searchuc.Aligner = blast.NewAligner(&blast.Config{
		Runner:  pm,
		TempDir: cfg.tempDir,
		Logger:  cfg.logger,
	})
	// Pass a nil interface, not a typed nil, when no cache is configured.
	var pinger healthuc.CachePinger
	if store != nil {
		aligner = searchcache.New(aligner, store, cfg.cacheTTL, metrics.SearchCacheTotal, cfg.logger)
		pinger = store
	}

	searcher := searchuc.NewInstrumentedSearcher(searchuc.New(aligner))
	gate := envuc.New(pm)
	fetcher := entrez.NewClient(&entrez.Config{
		Runner:  pm,
		EnvName: cfg.entrezEnv,
		TempDir: cfg.tempDir,
		Logger:  cfg.logger,
	})

	return &Client{
		store:     store,
		batchSvc:  batchuc.New(gate, batchuc.DatabaseCheckFunc(blast.CheckDatabase), searcher),
		gateSvc:   gate,
		fetchSvc:  fetchuc.New(gate, fetcher, fetcher.EnvName()),
		sink:      results.NewSink(cfg.logger),
		healthSvc: healthuc.New(pm, pinger),
		blastEnv:  cfg.blastEnv,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Run searches each sequence against opts.Database. Query ids are
// asv_1..asv_n in input order.
func (c *Client) Run(ctx context.Context, sequences []string, opts RunOptions) (*Result, error) {
	qs := make([]Query, len(sequences))
	for i, s := range sequences {
		qs[i] = Query{Sequence: s}
	}
	return c.RunQueries(ctx, qs, opts)
}

// RunQueries searches each query against opts.Database and writes the
// configured files. Setup failures abort before any search. A query whose
// search fails yields a failed row and the batch continues. If writing a
// file fails, the result is returned together with the error.
func (c *Client) RunQueries(ctx context.Context, qs []Query, opts RunOptions) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("run", start, err) }()

	p, err := opts.params(c.blastEnv)
	if err != nil {
		return nil, err
	}
	queries, err := toQueries(qs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	col, err := c.batchSvc.Run(ctx, queries, p, opts.workers())
	if err != nil {
		return nil, err
	}
	if opts.SortByQuery {
		col = col.SortedByQuery()
	}

	res = resultFromCollection(col)
	if err = c.sink.Persist(ctx, col, opts.OutFile, opts.SnapshotFile); err != nil {
		return res, err
	}
	return res, nil
}

// Fetch downloads reference records by accession from an NCBI database
// ("nuccore" when db is empty). Duplicate and blank accessions are dropped.
func (c *Client) Fetch(ctx context.Context, db string, accessions []string, verbose bool) (recs []Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("fetch", start, err) }()

	rs, err := c.fetchSvc.Records(ctx, db, accessions, verbose)
	if err != nil {
		return nil, err
	}
	return recordsFromDomain(rs), nil
}

// EnsureTool makes toolName runnable in envName, creating the environment
// when needed. force recreates it. An empty envName uses the client default.
func (c *Client) EnsureTool(ctx context.Context, toolName, envName string, verbose, force bool) (action string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_tool", start, err) }()

	if envName == "" {
		envName = c.blastEnv
	}
	a, err := c.gateSvc.Ensure(ctx, toolName, envName, verbose, force)
	return string(a), err
}

// Health reports whether the package manager and the cache are reachable.
func (c *Client) Health(ctx context.Context) healthuc.Report {
	return c.healthSvc.Check(ctx)
}

// PurgeCache deletes every cached aligner output and returns the count.
func (c *Client) PurgeCache(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("purge_cache", start, err) }()

	if c.store == nil {
		return 0, errors.New("blastr: no cache configured")
	}
	return searchcache.Purge(ctx, c.store)
}

// ReadSnapshot loads a snapshot written by a previous run.
func ReadSnapshot(path string) (*Result, error) {
	col, err := results.ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return resultFromCollection(col), nil
}

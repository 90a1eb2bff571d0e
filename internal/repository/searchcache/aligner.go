package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/db"
	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
)

// KeyPrefix namespaces aligner cache entries.
var KeyPrefix = domain.KeyPrefix + "aln_cache:"

// formatV1 is the header byte of a cache value. A header lets empty
// aligner output be stored and told apart from a corrupt entry.
const formatV1 byte = 1

// Aligner runs one aligner invocation.
type Aligner interface {
	Align(ctx context.Context, q query.Query, p params.Params) ([]byte, error)
}

// store is the consumer interface for the aligner cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedAligner caches raw aligner output in a key-value store.
type CachedAligner struct {
	inner      Aligner
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. A zero ttl stores entries without expiry.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Aligner,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedAligner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAligner{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Align returns cached output or calls the inner aligner. Failures are
// never cached. Store errors degrade to a miss.
func (c *CachedAligner) Align(ctx context.Context, q query.Query, p params.Params) ([]byte, error) {
	key := CacheKey(q, p)

	if out, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return out, nil
	}
	c.incCache("miss")

	out, err := c.inner.Align(ctx, q, p)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}

	c.putToCache(ctx, key, out)
	return out, nil
}

// CacheKey identifies the output of aligning q under p. The query id is part
// of the key because it is echoed in the output rows.
func CacheKey(q query.Query, p params.Params) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s", p.Fingerprint(), q.ID(), q.Sequence())
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedAligner) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedAligner) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached alignment", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 || data[0] != formatV1 {
		c.logger.Warn("Ignoring malformed cached alignment", zap.String("key", key))
		return nil, false
	}
	return data[1:], true
}

func (c *CachedAligner) putToCache(ctx context.Context, key string, out []byte) {
	data := make([]byte, 0, len(out)+1)
	data = append(data, formatV1)
	data = append(data, out...)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache alignment", zap.String("key", key), zap.Error(err))
	}
}

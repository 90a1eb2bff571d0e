package searchcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/db"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
)

type mockAligner struct {
	out   []byte
	err   error
	calls int
}

func (m *mockAligner) Align(_ context.Context, _ query.Query, _ params.Params) ([]byte, error) {
	m.calls++
	return m.out, m.err
}

// mockKVStore implements the consumer interfaces for tests.
type mockKVStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
	delErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) Scan(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockKVStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func newTestCachedAligner(t *testing.T, inner *mockAligner) (*CachedAligner, *mockKVStore) {
	t.Helper()
	ms := newMockKVStore()
	return New(inner, ms, time.Hour, nil, zap.NewNop()), ms
}

func testInput(t *testing.T, id, seq string, pident float64) (query.Query, params.Params) {
	t.Helper()
	q, err := query.New(0, id, seq)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	in := params.Defaults()
	in.Database = "/refs/db"
	in.PercentIdentity = pident
	p, err := params.New(in)
	if err != nil {
		t.Fatalf("params.New: %v", err)
	}
	return q, p
}

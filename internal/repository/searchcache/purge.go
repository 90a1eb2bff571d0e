package searchcache

import (
	"context"
	"fmt"
)

type purgeStore interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Purge deletes every aligner cache entry and returns how many were removed.
func Purge(ctx context.Context, s purgeStore) (int, error) {
	keys, err := s.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}
	for i, k := range keys {
		if err := s.Del(ctx, k); err != nil {
			return i, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/cache"
	"github.com/yourusername/neoflow/campaign-service/internal/metrics"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

const contentKeyPrefix = "ipfs:"

// CachedContentStore caches reads of another ContentStore. Content behind an
// address never changes, so entries only expire to bound memory.
type CachedContentStore struct {
	next  ContentStore
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedContentStore(next ContentStore, c cache.Cache, ttl time.Duration) *CachedContentStore {
	return &CachedContentStore{next: next, cache: c, ttl: ttl}
}

func (s *CachedContentStore) Get(ctx context.Context, cid string) ([]byte, error) {
	data, err := s.cache.Get(ctx, contentKeyPrefix+cid)
	if err == nil {
		metrics.MetadataCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		logger.Warn("Content cache read failed", zap.String("cid", cid), zap.Error(err))
	}
	metrics.MetadataCache.WithLabelValues("miss").Inc()

	data, err = s.next.Get(ctx, cid)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cid, data)
	return data, nil
}

func (s *CachedContentStore) PutJSON(ctx context.Context, v interface{}) (string, error) {
	cid, err := s.next.PutJSON(ctx, v)
	if err != nil {
		return "", err
	}
	if data, err := json.Marshal(v); err == nil {
		s.store(ctx, cid, data)
	}
	return cid, nil
}

func (s *CachedContentStore) PutFile(ctx context.Context, name string, r io.Reader) (string, error) {
	return s.next.PutFile(ctx, name, r)
}

func (s *CachedContentStore) URL(cid string) string {
	return s.next.URL(cid)
}

func (s *CachedContentStore) HealthCheck(ctx context.Context) error {
	return s.next.HealthCheck(ctx)
}

func (s *CachedContentStore) store(ctx context.Context, cid string, data []byte) {
	if err := s.cache.Set(ctx, contentKeyPrefix+cid, data, s.ttl); err != nil {
		logger.Warn("Content cache write failed", zap.String("cid", cid), zap.Error(err))
	}
}

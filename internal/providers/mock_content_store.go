package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MockContentStore keeps pinned content in memory. It backs demo mode when
// no Pinata credentials are configured. Addresses are derived from the
// content so pinning the same bytes twice yields the same address.
type MockContentStore struct {
	mu         sync.RWMutex
	objects    map[string][]byte
	gatewayURL string
}

func NewMockContentStore(gatewayURL string) *MockContentStore {
	return &MockContentStore{
		objects:    make(map[string][]byte),
		gatewayURL: gatewayURL,
	}
}

func (m *MockContentStore) Get(ctx context.Context, cid string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[cid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, cid)
	}
	return append([]byte(nil), data...), nil
}

func (m *MockContentStore) PutJSON(ctx context.Context, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON content: %w", err)
	}
	return m.put(data), nil
}

func (m *MockContentStore) PutFile(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return m.put(data), nil
}

// Seed stores data under a caller chosen address.
func (m *MockContentStore) Seed(cid string, data []byte) {
	m.mu.Lock()
	m.objects[cid] = append([]byte(nil), data...)
	m.mu.Unlock()
}

func (m *MockContentStore) URL(cid string) string {
	return ResolveURL(m.gatewayURL, cid)
}

func (m *MockContentStore) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockContentStore) put(data []byte) string {
	sum := sha256.Sum256(data)
	cid := "demo_" + hex.EncodeToString(sum[:])[:40]
	m.Seed(cid, data)
	return cid
}

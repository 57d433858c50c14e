package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
)

const tokenBytes = 32

// MemoryRegistry is the in-process token registry: a lifecycle-scoped,
// mutex-guarded map owned by whoever constructs it. All operations on the
// shared state run under one lock, so concurrent requests racing on the
// same token (double submission) serialize instead of losing updates.
type MemoryRegistry struct {
	mu      sync.Mutex
	rand    io.Reader
	byToken map[string]string
	byOrder map[string]string
}

type MemoryOption func(*MemoryRegistry)

// WithRand substitutes the randomness source; tests use a deterministic
// reader.
func WithRand(r io.Reader) MemoryOption {
	return func(m *MemoryRegistry) { m.rand = r }
}

func NewMemoryRegistry(opts ...MemoryOption) *MemoryRegistry {
	m := &MemoryRegistry{
		rand:    rand.Reader,
		byToken: make(map[string]string),
		byOrder: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryRegistry) Issue(_ context.Context, orderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byOrder[orderID]; exists {
		return "", fmt.Errorf("token already issued for order %s", orderID)
	}
	tok, err := m.newToken()
	if err != nil {
		return "", err
	}
	m.byToken[tok] = orderID
	m.byOrder[orderID] = tok
	return tok, nil
}

func (m *MemoryRegistry) Get(_ context.Context, tok string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orderID, ok := m.byToken[tok]
	if !ok {
		return "", application.ErrTokenNotFound
	}
	return orderID, nil
}

// Rotate swaps the mapping under the lock: after it returns, the old
// token resolves to nothing and the new one resolves to the same order.
func (m *MemoryRegistry) Rotate(_ context.Context, old string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orderID, ok := m.byToken[old]
	if !ok {
		return "", application.ErrTokenNotFound
	}
	next, err := m.newToken()
	if err != nil {
		return "", err
	}
	m.byToken[next] = orderID
	m.byOrder[orderID] = next
	delete(m.byToken, old)
	return next, nil
}

func (m *MemoryRegistry) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(m.rand, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

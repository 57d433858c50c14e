package token

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
)

func TestMemoryRegistry_IssueAndGet(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	tok, err := reg.Issue(ctx, "order-1")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	orderID, err := reg.Get(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
}

func TestMemoryRegistry_IssueRejectsSecondToken(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	_, err := reg.Issue(ctx, "order-1")
	require.NoError(t, err)

	_, err = reg.Issue(ctx, "order-1")
	assert.Error(t, err, "an order owns exactly one live token")
}

func TestMemoryRegistry_GetUnknown(t *testing.T) {
	reg := NewMemoryRegistry()
	_, err := reg.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, application.ErrTokenNotFound)
}

func TestMemoryRegistry_Rotate(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	old, err := reg.Issue(ctx, "order-1")
	require.NoError(t, err)

	next, err := reg.Rotate(ctx, old)
	require.NoError(t, err)
	assert.NotEqual(t, old, next)

	_, err = reg.Get(ctx, old)
	assert.ErrorIs(t, err, application.ErrTokenNotFound, "rotation retires the old token")

	orderID, err := reg.Get(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
}

func TestMemoryRegistry_RotateUnknown(t *testing.T) {
	reg := NewMemoryRegistry()
	_, err := reg.Rotate(context.Background(), "nope")
	assert.ErrorIs(t, err, application.ErrTokenNotFound)
}

// A double submission races two rotations of the same token; exactly one
// may win, and the winner's token must resolve.
func TestMemoryRegistry_ConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	tok, err := reg.Issue(ctx, "order-1")
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	winners := make(chan string, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if next, err := reg.Rotate(ctx, tok); err == nil {
				winners <- next
			}
		}()
	}
	wg.Wait()
	close(winners)

	require.Len(t, winners, 1, "only one rotation of a token may succeed")
	next := <-winners
	orderID, err := reg.Get(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
}

func TestMemoryRegistry_TokensAreDistinctAcrossOrders(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := reg.Issue(ctx, string(rune('a'+i%26))+string(rune('0'+i/26)))
		require.NoError(t, err)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGet(t *testing.T) {
	store := NewStore(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "greeting", "hello", 0))

	value, ok := store.Get(ctx, "greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", value)

	_, ok = store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Delete(ctx, "greeting")
	_, ok = store.Get(ctx, "greeting")
	assert.False(t, ok)
}

func TestStoreJSONRoundTrip(t *testing.T) {
	store := NewStore(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.SetJSON(ctx, "p", payload{Name: "alpha", Count: 3}, 0))

	var out payload
	ok, err := store.GetJSON(ctx, "p", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", out.Name)
	assert.Equal(t, 3, out.Count)

	ok, err = store.GetJSON(ctx, "absent", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreNamespaceIsolation(t *testing.T) {
	store := NewStore(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	sessions := store.Namespace("bot:session")
	other := store.Namespace("other")

	require.NoError(t, sessions.Set(ctx, "42", "draft", 0))

	_, ok := other.Get(ctx, "42")
	assert.False(t, ok)

	value, ok := sessions.Get(ctx, "42")
	require.True(t, ok)
	assert.Equal(t, "draft", value)

	// namespaced keys share the backend under distinct prefixed keys
	raw, ok := store.Get(ctx, "bot:session:42")
	require.True(t, ok)
	assert.Equal(t, "draft", raw)
}

func TestStoreTTLExpiry(t *testing.T) {
	store := NewStore(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "blink", 1, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok := store.Get(ctx, "blink")
	assert.False(t, ok)
}

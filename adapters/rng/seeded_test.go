package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamIsDeterministic(t *testing.T) {
	ctx := context.Background()
	adapter := NewSeededAdapter()

	a, err := adapter.Stream(ctx, "split", "round-3", 42)
	require.NoError(t, err)
	b, err := adapter.Stream(ctx, "split", "round-3", 42)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestDeriveSeedSeparatesKeys(t *testing.T) {
	adapter := NewSeededAdapter()
	seen := make(map[int64]string)
	for _, stage := range []string{"split", "inner"} {
		for _, key := range []string{"round-1", "round-2", "round-3", "round-10"} {
			seed := adapter.DeriveSeed(stage, key, 42)
			if prev, dup := seen[seed]; dup {
				t.Fatalf("seed collision between %s and %s/%s", prev, stage, key)
			}
			seen[seed] = stage + "/" + key
		}
	}
	assert.NotEqual(t, adapter.DeriveSeed("split", "round-1", 42), adapter.DeriveSeed("split", "round-1", 43))
}

func TestStreamHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSeededAdapter().Stream(ctx, "split", "round-1", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

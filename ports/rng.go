package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream for a stage and key (for example
	// stage "split", key "round-3"), so a round draws the same numbers no matter
	// which worker runs it or in which order
	Stream(ctx context.Context, stageName, key string, baseSeed int64) (*rand.Rand, error)

	// DeriveSeed returns the seed Stream would use
	DeriveSeed(stageName, key string, baseSeed int64) int64
}

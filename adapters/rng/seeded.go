package rng

import (
	"context"
	"math/rand"

	"veritas/ports"
)

// SeededAdapter implements ports.RNGPort with math/rand sources
type SeededAdapter struct{}

// NewSeededAdapter creates the default RNG adapter
func NewSeededAdapter() ports.RNGPort {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (r *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a stage and key
func (r *SeededAdapter) Stream(ctx context.Context, stageName, key string, baseSeed int64) (*rand.Rand, error) {
	return r.SeededStream(ctx, stageName, r.DeriveSeed(stageName, key, baseSeed))
}

// DeriveSeed mixes the stage and key hashes into the base seed
func (r *SeededAdapter) DeriveSeed(stageName, key string, baseSeed int64) int64 {
	seed := baseSeed
	if stageName != "" {
		seed = int64(hashString(stageName)) + seed
	}
	if key != "" {
		seed = int64(hashString(key))*31 + seed
	}
	return seed
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

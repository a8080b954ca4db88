package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Shuffle performs a cryptographically secure Fisher-Yates shuffle of the
// slice in place.
func Shuffle[T any](slice []T) error {
	n := len(slice)
	for i := n - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate random number: %w", err)
		}
		j := int(jBig.Int64())
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// Sample returns up to count distinct elements drawn uniformly at random
// without replacement. The input slice is not modified.
func Sample[T any](slice []T, count int) ([]T, error) {
	if count >= len(slice) {
		out := make([]T, len(slice))
		copy(out, slice)
		return out, nil
	}

	shuffled := make([]T, len(slice))
	copy(shuffled, slice)
	if err := Shuffle(shuffled); err != nil {
		return nil, err
	}
	return shuffled[:count], nil
}

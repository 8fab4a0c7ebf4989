// Package combo enumerates subsets of a sequence, sizes 1..M, without recursion.
//
// Ordering is by size, then lexicographic by index, so the i-th subset for a
// given (n, m) is always the same. Callers use that stability to index
// downstream structures.
//
// Cost warning: the number of subsets is Σ C(n,k) for k=1..m, which grows
// combinatorially. Enumeration honours context cancellation so callers can
// bound runaway universes with a deadline.
package combo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrBadSize indicates n < 0 or m < 1.
var ErrBadSize = errors.New("combo: subset size must be >= 1 and universe size >= 0")

// ctxPollInterval is the number of emitted subsets between context checks.
const ctxPollInterval = 1024

// Count returns Σ C(n,k) for k=1..min(m,n). It saturates at math.MaxInt.
func Count(n, m int) int {
	if n <= 0 || m <= 0 {
		return 0
	}
	if m > n {
		m = n
	}
	total := 0
	c := 1 // C(n,0)
	for k := 1; k <= m; k++ {
		// C(n,k) = C(n,k-1)·(n-k+1)/k, exact at every step.
		if c > math.MaxInt/(n-k+1) {
			return math.MaxInt
		}
		c = c * (n - k + 1) / k
		if total > math.MaxInt-c {
			return math.MaxInt
		}
		total += c
	}

	return total
}

// Indices emits every subset of {0..n-1} with size 1..m as a sorted index slice.
// m > n is clamped to n.
//
// Implementation:
//   - For each size k, keep an explicit index stack idx[0..k-1] starting at 0..k-1.
//   - Emit, then advance the rightmost index that can still move and reset the
//     tail to consecutive values.
//
// Complexity: O(Count(n,m)·m) time; output dominates memory.
func Indices(ctx context.Context, n, m int) ([][]int, error) {
	if n < 0 || m < 1 {
		return nil, fmt.Errorf("%w: n=%d m=%d", ErrBadSize, n, m)
	}
	if m > n {
		m = n
	}
	out := make([][]int, 0, Count(n, m))
	err := Walk(ctx, n, m, func(idx []int) error {
		cp := make([]int, len(idx))
		copy(cp, idx)
		out = append(out, cp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Walk streams subsets to fn without materializing them. The slice passed to
// fn is reused between calls and must be copied if retained. A non-nil error
// from fn stops the walk and is returned unchanged.
func Walk(ctx context.Context, n, m int, fn func(idx []int) error) error {
	if n < 0 || m < 1 {
		return fmt.Errorf("%w: n=%d m=%d", ErrBadSize, n, m)
	}
	if m > n {
		m = n
	}

	var emitted int
	idx := make([]int, m)
	for k := 1; k <= m; k++ {
		// 1) Seed the stack with 0..k-1.
		cur := idx[:k]
		for i := range cur {
			cur[i] = i
		}
		for {
			// 2) Emit, polling the context.
			emitted++
			if emitted%ctxPollInterval == 0 {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("combo: %w", err)
				}
			}
			if err := fn(cur); err != nil {
				return err
			}

			// 3) Advance: find the rightmost index below its ceiling.
			i := k - 1
			for i >= 0 && cur[i] == n-k+i {
				i--
			}
			if i < 0 {
				break
			}
			cur[i]++
			for j := i + 1; j < k; j++ {
				cur[j] = cur[j-1] + 1
			}
		}
	}

	return nil
}

// Generate maps every index subset onto items.
func Generate[T any](ctx context.Context, items []T, m int) ([][]T, error) {
	out := make([][]T, 0, Count(len(items), m))
	err := Walk(ctx, len(items), m, func(idx []int) error {
		sub := make([]T, len(idx))
		for i, j := range idx {
			sub[i] = items[j]
		}
		out = append(out, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

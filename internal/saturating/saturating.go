// Package saturating provides the clamped-arithmetic helpers the executors
// use when advancing nonces, so overflow at the top of the range is defined
// behavior rather than a wraparound bug.
package saturating

import "math"

// AddUint64 returns a+b, clamped to math.MaxUint64 on overflow.
func AddUint64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

package lottery

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sync"
	"time"
)

// Sampler picks an index from a weight vector. Implementations must return a
// value in [0, len(weights)) for non-empty input.
type Sampler interface {
	Pick(weights []float64) int
}

// RandSampler draws with a math/rand/v2 PCG source. It is safe for
// concurrent use.
type RandSampler struct {
	mu sync.Mutex
	r  *mrand.Rand
}

// NewSampler returns a RandSampler. A zero seed means seed from crypto/rand.
func NewSampler(seed uint64) *RandSampler {
	if seed == 0 {
		seed = cryptoSeed()
	}
	return &RandSampler{
		r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Pick selects an index with probability weights[i] / sum(weights).
// Non-positive weights are never chosen unless every weight is non-positive,
// in which case the choice is uniform.
func (s *RandSampler) Pick(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if total <= 0 {
		return s.r.IntN(len(weights))
	}

	roll := s.r.Float64() * total
	sum := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		sum += w
		last = i
		if roll < sum {
			return i
		}
	}

	// float rounding can leave roll == total
	return last
}

// cryptoSeed reads a seed from crypto/rand, falling back to the clock
func cryptoSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

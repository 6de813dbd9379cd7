package intrinsic

import (
	"math/rand/v2"
	"sync"
)

// DefaultSeed seeds the generator until RANDOM_SEED is called, so that runs
// are reproducible.
const DefaultSeed = 123456789

var rng = struct {
	mu  sync.Mutex
	src *rand.Rand
}{src: newRand(DefaultSeed)}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RANDOM_SEED reseeds the generator. Without arguments it restores [DefaultSeed].
func RANDOM_SEED(seed ...int) {
	s := uint64(DefaultSeed)
	if len(seed) > 0 {
		s = 0
		for _, v := range seed {
			s = s*31 + uint64(v)
		}
	}
	rng.mu.Lock()
	rng.src = newRand(s)
	rng.mu.Unlock()
}

// RANDOM_NUMBER stores a uniform pseudo-random number in [0, 1) into harvest.
func RANDOM_NUMBER[T float](harvest *Ref[T]) {
	rng.mu.Lock()
	harvest.V = T(rng.src.Float64())
	rng.mu.Unlock()
}

// RandomFill fills every element of a in storage order. Fortran: CALL RANDOM_NUMBER(a)
// with an array argument.
func RandomFill[T float](a *Array[T]) {
	rng.mu.Lock()
	for i := range a.data {
		a.data[i] = T(rng.src.Float64())
	}
	rng.mu.Unlock()
}

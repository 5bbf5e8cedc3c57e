// Package rng provides the seeded random source that every generation stage
// draws from. The engine is chosen once at construction and never swapped.
package rng

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/seehuhn/mt19937"
)

type Engine string

const (
	MT19937 Engine = "mt19937"
	PCG     Engine = "pcg"
	Xoshiro Engine = "xoshiro"
	ChaCha8 Engine = "chacha8"
)

var ErrUnknownEngine = errors.New("unknown rng engine")

// Engines lists the supported engine names in a stable order.
var Engines = []Engine{MT19937, PCG, Xoshiro, ChaCha8}

func ParseEngine(name string) (Engine, error) {
	engine := Engine(strings.ToLower(strings.TrimSpace(name)))
	for _, e := range Engines {
		if e == engine {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

// Rand is a deterministic random stream. It is not safe for concurrent use.
type Rand struct {
	engine Engine
	seed   uint64
	r      *rand.Rand
}

func New(engine Engine, seed uint64) (*Rand, error) {
	src, err := newSource(engine, seed)
	if err != nil {
		return nil, err
	}
	return &Rand{engine: engine, seed: seed, r: rand.New(src)}, nil
}

func newSource(engine Engine, seed uint64) (rand.Source, error) {
	switch engine {
	case MT19937:
		mt := mt19937.New()
		mt.Seed(int64(seed))
		return mt, nil
	case PCG:
		state := seed
		return rand.NewPCG(seed, splitMix64(&state)), nil
	case Xoshiro:
		return newXoshiro256(seed), nil
	case ChaCha8:
		var key [32]byte
		state := seed
		for i := 0; i < len(key); i += 8 {
			v := splitMix64(&state)
			for b := 0; b < 8; b++ {
				key[i+b] = byte(v >> (8 * b))
			}
		}
		return rand.NewChaCha8(key), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, string(engine))
	}
}

func (r *Rand) Engine() Engine { return r.engine }

func (r *Rand) Seed() uint64 { return r.seed }

// Derive returns an independent stream of the same engine keyed by stream.
// The parent stream is not advanced.
func (r *Rand) Derive(stream uint64) *Rand {
	state := r.seed ^ (stream * 0x9e3779b97f4a7c15)
	child, err := New(r.engine, splitMix64(&state))
	if err != nil {
		// engine was validated when r was built
		panic(err)
	}
	return child
}

func (r *Rand) Uint32() uint32 { return r.r.Uint32() }

func (r *Rand) Uint64() uint64 { return r.r.Uint64() }

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// IntRange returns a value in [min, max] inclusive. max <= min yields min.
func (r *Rand) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.r.IntN(max-min+1)
}

// FloatRange returns a value in [min, max).
func (r *Rand) FloatRange(min, max float64) float64 {
	return min + r.r.Float64()*(max-min)
}

// Chance reports true with probability p. It always consumes one draw so the
// stream position does not depend on p.
func (r *Rand) Chance(p float64) bool {
	return r.r.Float64() < p
}

func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.r.Shuffle(n, swap)
}

func (r *Rand) Perm(n int) []int {
	return r.r.Perm(n)
}

func splitMix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

package rng

import "math/bits"

// xoshiro256 implements xoshiro256** as a math/rand/v2 Source.
type xoshiro256 struct {
	s [4]uint64
}

func newXoshiro256(seed uint64) *xoshiro256 {
	x := &xoshiro256{}
	x.Seed(seed)
	return x
}

// Seed expands seed with SplitMix64. The all-zero state is unreachable
// because SplitMix64 never yields four consecutive zeros.
func (x *xoshiro256) Seed(seed uint64) {
	state := seed
	for i := range x.s {
		x.s[i] = splitMix64(&state)
	}
}

func (x *xoshiro256) Uint64() uint64 {
	s := &x.s
	result := bits.RotateLeft64(s[1]*5, 7) * 9
	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]
	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)

	return result
}

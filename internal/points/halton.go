package points

import "context"

const (
	haltonBaseX = 2
	haltonBaseY = 3
	// maxHaltonOffset bounds the seeded starting index of the sequence.
	maxHaltonOffset = 1 << 16
)

type halton struct{}

func (h *halton) Method() Method { return Halton }

// Distribute consumes a single draw to pick the sequence offset, so point i
// depends only on (offset + i).
func (h *halton) Distribute(ctx context.Context, src Source, n int, b Bounds) (Result, error) {
	if err := validate(n, b); err != nil {
		return Result{}, err
	}
	offset := 1 + src.IntN(maxHaltonOffset)

	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		idx := offset + i
		pts = append(pts, b.clamp(Point{
			X: radicalInverse(idx, haltonBaseX) * b.Width,
			Y: radicalInverse(idx, haltonBaseY) * b.Height,
		}))
	}
	return Result{Points: pts}, nil
}

// radicalInverse is the van der Corput value of i in the given base, in [0,1).
func radicalInverse(i, base int) float64 {
	result := 0.0
	f := 1.0 / float64(base)
	for i > 0 {
		result += f * float64(i%base)
		i /= base
		f /= float64(base)
	}
	return result
}

// Package weighted draws variants from value-to-weight tables.
package weighted

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrZeroWeight     = errors.New("weight table has zero total weight")
	ErrNegativeWeight = errors.New("weight table has a negative weight")
)

// Source is the part of a random stream a table draws from.
type Source interface {
	Float64() float64
}

type Entry[T any] struct {
	Value  T
	Weight float64
}

// Table is an immutable cumulative distribution over an ordered entry list.
// Entry order is part of the draw contract: reordering changes results.
type Table[T any] struct {
	values     []T
	cumulative []float64
	total      float64
}

func New[T any](entries ...Entry[T]) (*Table[T], error) {
	t := &Table[T]{
		values:     make([]T, 0, len(entries)),
		cumulative: make([]float64, 0, len(entries)),
	}
	for i, e := range entries {
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: entry %d has weight %v", ErrNegativeWeight, i, e.Weight)
		}
		if e.Weight == 0 {
			continue
		}
		t.total += e.Weight
		t.values = append(t.values, e.Value)
		t.cumulative = append(t.cumulative, t.total)
	}
	if t.total <= 0 {
		return nil, ErrZeroWeight
	}
	return t, nil
}

// MustNew is New for tables known at compile time.
func MustNew[T any](entries ...Entry[T]) *Table[T] {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Pick consumes exactly one Float64 from src.
func (t *Table[T]) Pick(src Source) T {
	target := src.Float64() * t.total
	i := sort.Search(len(t.cumulative), func(i int) bool {
		return t.cumulative[i] > target
	})
	if i == len(t.cumulative) {
		i--
	}
	return t.values[i]
}

func (t *Table[T]) Len() int { return len(t.values) }

func (t *Table[T]) Total() float64 { return t.total }

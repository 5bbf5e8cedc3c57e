// Package names generates star, planet and moon names.
package names

import (
	"fmt"
	"strconv"
	"strings"

	"galaxy-forge/internal/catalog"
)

type Source interface {
	Float64() float64
	IntN(n int) int
}

const (
	StyleCatalog      = "catalog"
	StyleFictional    = "fictional"
	StyleMythological = "mythological"
)

// StarNamer hands out star names that are unique within one namer.
type StarNamer struct {
	lists *catalog.Names
	used  map[string]bool
}

func NewStarNamer(lists *catalog.Names) *StarNamer {
	return &StarNamer{lists: lists, used: make(map[string]bool)}
}

// Reserve marks existing names as taken, e.g. when expanding a galaxy.
func (n *StarNamer) Reserve(existing ...string) {
	for _, name := range existing {
		n.used[name] = true
	}
}

func (n *StarNamer) Next(src Source) string {
	base := n.generate(src)
	name := base
	for suffix := 2; n.used[name]; suffix++ {
		name = fmt.Sprintf("%s-%d", base, suffix)
	}
	n.used[name] = true
	return name
}

func (n *StarNamer) generate(src Source) string {
	switch n.lists.StyleTable().Pick(src) {
	case StyleCatalog:
		return strings.Join([]string{
			pick(src, n.lists.CatalogStars),
			pick(src, n.lists.GreekLetters),
			pick(src, n.lists.Numerals),
		}, " ")
	case StyleFictional:
		parts := 2 + src.IntN(2)
		var b strings.Builder
		for i := 0; i < parts; i++ {
			b.WriteString(pick(src, n.lists.Syllables))
		}
		return capitalize(b.String())
	default:
		return pick(src, n.lists.Mythological)
	}
}

func pick(src Source, list []string) string {
	return list[src.IntN(len(list))]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PickCaptain returns "<title> <first> <last>".
func PickCaptain(src Source, c catalog.Captains) string {
	title := pick(src, c.Titles)
	first := pick(src, c.FirstNames)
	last := pick(src, c.LastNames)
	return title + " " + first + " " + last
}

var numerals = []struct {
	value  int
	symbol string
}{
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// MaxNumeral is the largest index rendered as a Roman numeral.
const MaxNumeral = 30

// Roman renders 1..MaxNumeral as Roman numerals and anything else as digits.
func Roman(n int) string {
	if n < 1 || n > MaxNumeral {
		return strconv.Itoa(n)
	}
	var b strings.Builder
	for _, r := range numerals {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

func Planet(star string, index int) string {
	return star + " " + Roman(index)
}

func Moon(planet string, index int) string {
	return planet + " Moon " + Roman(index)
}

func AsteroidBelt(star string) string {
	return star + " Asteroid Belt"
}

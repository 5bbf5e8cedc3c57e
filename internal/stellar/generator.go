// Package stellar generates the contents of a single star system.
package stellar

import (
	"math"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/names"
)

type Source interface {
	Float64() float64
	IntN(n int) int
}

type Generator struct {
	cat *catalog.Catalog
}

func NewGenerator(cat *catalog.Catalog) *Generator {
	return &Generator{cat: cat}
}

// Generate draws a full system for the named star. The draw order is fixed:
// class, temperature, planet presence, planet count, hot Jupiter, then each
// planet with its deposits and moons, then the asteroid belt.
func (g *Generator) Generate(src Source, starName string) System {
	sc := &g.cat.StarClasses[g.cat.ClassTable().Pick(src)]
	sys := System{
		Class:       sc.Class,
		Temperature: intRange(src, sc.Temperature.Min, sc.Temperature.Max),
	}

	sys.HasPlanets = src.Float64() < g.cat.PlanetsChance
	if !sys.HasPlanets {
		return sys
	}

	planetCount := intRange(src, sc.Planets.Min, sc.Planets.Max)
	if planetCount == 0 {
		// A zero draw leaves a bare star with no belt.
		sys.HasPlanets = false
		return sys
	}
	startIndex := 1

	if src.Float64() < sc.HotJupiterChance {
		sys.HotJupiter = true
		sys.Bodies = append(sys.Bodies, Body{
			Type:            TypeHotJupiter,
			Name:            names.Planet(starName, 1),
			Parent:          NoParent,
			OrbitalIndex:    1,
			OrbitalDistance: round(0.01+src.Float64()*0.09, 3),
			MassJupiter:     round(0.5+src.Float64()*2.5, 2),
		})
		planetCount--
		startIndex = 2
	}

	last := startIndex + planetCount - 1
	for i := startIndex; i <= last; i++ {
		position := NormalizedPosition(i, last)
		var planetType string
		if position < g.cat.Orbits.InnerLimit {
			planetType = sc.InnerTable().Pick(src)
		} else {
			planetType = g.cat.OuterTable(position).Pick(src)
		}

		distance := g.OrbitalDistance(sc, i)
		planet := Body{
			Type:            planetType,
			Name:            names.Planet(starName, i),
			Parent:          NoParent,
			OrbitalIndex:    i,
			OrbitalDistance: distance,
			Minerals:        g.deposits(src),
		}
		planetSlot := len(sys.Bodies)
		sys.Bodies = append(sys.Bodies, planet)

		moons := g.moonCount(src, planetType, distance)
		for m := 1; m <= moons; m++ {
			sys.Bodies = append(sys.Bodies, Body{
				Type:            TypeMoon,
				Name:            names.Moon(planet.Name, m),
				Parent:          planetSlot,
				OrbitalIndex:    m,
				OrbitalDistance: distance,
			})
		}
	}

	if src.Float64() < sc.AsteroidBeltChance {
		index := startIndex + planetCount
		sys.Bodies = append(sys.Bodies, Body{
			Type:            TypeAsteroidBelt,
			Name:            names.AsteroidBelt(starName),
			Parent:          NoParent,
			OrbitalIndex:    index,
			OrbitalDistance: g.OrbitalDistance(sc, index),
			Minerals:        g.deposits(src),
		})
	}

	return sys
}

// NormalizedPosition maps orbital index i of a system whose outermost planet
// has index last onto [0,1]. Single-planet systems sit at 0.5.
func NormalizedPosition(i, last int) float64 {
	if last <= 1 {
		return 0.5
	}
	return float64(i-1) / float64(last-1)
}

// OrbitalDistance is base(class) * spacing^(i-1) AU rounded to 0.01.
func (g *Generator) OrbitalDistance(sc *catalog.StarClass, i int) float64 {
	return round(sc.BaseOrbitDistance*math.Pow(g.cat.Orbits.SpacingFactor, float64(i-1)), 2)
}

func (g *Generator) moonCount(src Source, planetType string, distance float64) int {
	table := g.cat.MoonTable(planetType, distance)
	if table == nil {
		return 0
	}
	return table.Pick(src)
}

func (g *Generator) deposits(src Source) []string {
	want := intRange(src, g.cat.Deposits.Min, g.cat.Deposits.Max)
	if want <= 0 {
		return nil
	}
	picked := make([]string, 0, want)
	seen := make(map[int]bool, want)
	for attempt := 0; attempt < want*4 && len(picked) < want; attempt++ {
		idx := g.cat.DepositTable().Pick(src)
		if seen[idx] {
			continue
		}
		seen[idx] = true
		picked = append(picked, g.cat.Minerals[idx].Name)
	}
	return picked
}

func intRange(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.IntN(max-min+1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

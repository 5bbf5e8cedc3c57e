// Package economy seeds the mineral and ship markets of trading hubs.
package economy

import (
	"math"
	"slices"

	"galaxy-forge/internal/catalog"
)

const (
	MinLevel = 30
	MaxLevel = 70

	// Spread applied to the market price when quoting. Hubs buy from players
	// below price and sell to them above it.
	Spread = 0.15

	// MinMineralShare is the smallest fraction of the catalog a hub stocks.
	MinMineralShare = 0.6
)

type Source interface {
	Float64() float64
	IntN(n int) int
}

type MineralListing struct {
	Mineral   string
	Symbol    string
	Rarity    string
	BaseValue float64
	Stock     int
	Demand    int
	Supply    int
	Price     float64
	BuyPrice  float64
	SellPrice float64
}

type ShipListing struct {
	Ship      string
	Class     string
	Rarity    string
	BasePrice float64
	Quantity  int
	Demand    int
	Supply    int
	Price     float64
}

// Price scales the base value up with demand and down with supply, both
// centered on 50.
func Price(base float64, demand, supply int) float64 {
	d := 1 + float64(demand-50)/100
	s := 1 - float64(supply-50)/100
	return round2(base * d * s)
}

// Quote returns what a hub pays for and charges for one unit.
func Quote(price float64) (buy, sell float64) {
	return round2(price * (1 - Spread)), round2(price * (1 + Spread))
}

// Reprice moves a listing to new market levels, clamped to [0,100].
func (l *MineralListing) Reprice(demand, supply int) {
	l.Demand = clampLevel(demand)
	l.Supply = clampLevel(supply)
	l.Price = Price(l.BaseValue, l.Demand, l.Supply)
	l.BuyPrice, l.SellPrice = Quote(l.Price)
}

func (l *ShipListing) Reprice(demand, supply int) {
	l.Demand = clampLevel(demand)
	l.Supply = clampLevel(supply)
	l.Price = Price(l.BasePrice, l.Demand, l.Supply)
}

// SeedMinerals stocks between 60% and 100% of the catalog minerals. Listings
// come back in catalog order.
func SeedMinerals(src Source, cat *catalog.Catalog) []MineralListing {
	n := len(cat.Minerals)
	if n == 0 {
		return nil
	}
	count := intRange(src, int(math.Ceil(float64(n)*MinMineralShare)), n)
	picked := sample(src, n, count)

	listings := make([]MineralListing, 0, count)
	for _, idx := range picked {
		m := cat.Minerals[idx]
		stock := cat.MineralStock.For(m.Rarity)
		l := MineralListing{
			Mineral:   m.Name,
			Symbol:    m.Symbol,
			Rarity:    m.Rarity,
			BaseValue: m.BaseValue,
			Stock:     intRange(src, stock.Min, stock.Max),
		}
		l.Reprice(intRange(src, MinLevel, MaxLevel), intRange(src, MinLevel, MaxLevel))
		listings = append(listings, l)
	}
	return listings
}

// SeedShips rolls the tier's shipyard chance and, on success, lists a subset
// of the purchasable ships. A shipyard max of zero means every ship.
func SeedShips(src Source, cat *catalog.Catalog, tier string) []ShipListing {
	yard, ok := cat.ShipyardFor(tier)
	if !ok {
		return nil
	}
	if src.Float64() >= yard.Chance {
		return nil
	}
	ships := cat.PurchasableShips()
	n := len(ships)
	if n == 0 {
		return nil
	}

	lo := min(yard.Min, n)
	hi := n
	if yard.Max > 0 {
		hi = min(yard.Max, n)
	}
	count := intRange(src, lo, max(lo, hi))
	picked := sample(src, n, count)

	listings := make([]ShipListing, 0, count)
	for _, idx := range picked {
		s := ships[idx]
		qty := cat.ShipStock.For(s.Rarity)
		l := ShipListing{
			Ship:      s.Name,
			Class:     s.Class,
			Rarity:    s.Rarity,
			BasePrice: s.BasePrice,
			Quantity:  intRange(src, qty.Min, qty.Max),
		}
		l.Reprice(intRange(src, MinLevel, MaxLevel), intRange(src, MinLevel, MaxLevel))
		listings = append(listings, l)
	}
	return listings
}

// sample draws k distinct indices from [0,n) with a partial Fisher-Yates
// shuffle and returns them sorted.
func sample(src Source, n, k int) []int {
	k = max(0, min(k, n))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + src.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	picked := idx[:k]
	slices.Sort(picked)
	return picked
}

func intRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

func clampLevel(v int) int {
	return max(0, min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

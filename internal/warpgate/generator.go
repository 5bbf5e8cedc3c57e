// Package warpgate builds the reciprocal gate graph between stars.
package warpgate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

const (
	StatusActive  = "active"
	StatusDormant = "dormant"

	DefaultChunkSize = 50
)

type Source interface {
	Float64() float64
	IntN(n int) int
}

// Node is a star that can carry gates. IDs must be unique.
type Node struct {
	ID int64
	X  float64
	Y  float64
}

func (n Node) distanceTo(o Node) float64 {
	return math.Hypot(n.X-o.X, n.Y-o.Y)
}

// Edge is one directed gate.
type Edge struct {
	From     int64
	To       int64
	Distance float64
	Hidden   bool
	Status   string
	FuelCost int
}

type Config struct {
	AdjacencyThreshold float64
	MaxGatesPerSystem  int
	HiddenPercentage   float64
	DormantPercentage  float64
	ChunkSize          int
}

func (c Config) Validate() error {
	if c.AdjacencyThreshold <= 0 {
		return fmt.Errorf("adjacency threshold must be positive, got %v", c.AdjacencyThreshold)
	}
	if c.MaxGatesPerSystem < 1 {
		return fmt.Errorf("max gates per system must be at least 1, got %d", c.MaxGatesPerSystem)
	}
	if c.HiddenPercentage < 0 || c.HiddenPercentage > 1 {
		return fmt.Errorf("hidden gate percentage must be within [0,1], got %v", c.HiddenPercentage)
	}
	if c.DormantPercentage < 0 || c.DormantPercentage > 1 {
		return fmt.Errorf("dormant gate percentage must be within [0,1], got %v", c.DormantPercentage)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk size must not be negative, got %d", c.ChunkSize)
	}
	return nil
}

// FuelCost is one unit per two distance units, at least one.
func FuelCost(distance float64) int {
	return max(1, int(math.Ceil(distance/2)))
}

type pair struct{ a, b int64 }

func canonical(a, b int64) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// Network tracks connected pairs and out-degrees so regeneration never
// inserts a pair that already exists in either direction.
type Network struct {
	pairs  map[pair]bool
	degree map[int64]int
}

func NewNetwork(existing []Edge) *Network {
	n := &Network{pairs: make(map[pair]bool), degree: make(map[int64]int)}
	for _, e := range existing {
		n.degree[e.From]++
		n.pairs[canonical(e.From, e.To)] = true
	}
	return n
}

func (n *Network) Connected(a, b int64) bool { return n.pairs[canonical(a, b)] }

func (n *Network) Degree(id int64) int { return n.degree[id] }

// connect records a new pair and returns both directed edges. Each direction
// rolls its own hidden flag; the pair shares one status.
func (n *Network) connect(src Source, a, b Node, d float64, cfg Config) [2]Edge {
	n.pairs[canonical(a.ID, b.ID)] = true
	n.degree[a.ID]++
	n.degree[b.ID]++

	hiddenAB := src.Float64() < cfg.HiddenPercentage
	hiddenBA := src.Float64() < cfg.HiddenPercentage
	status := StatusActive
	if src.Float64() < cfg.DormantPercentage {
		status = StatusDormant
	}
	cost := FuelCost(d)
	return [2]Edge{
		{From: a.ID, To: b.ID, Distance: d, Hidden: hiddenAB, Status: status, FuelCost: cost},
		{From: b.ID, To: a.ID, Distance: d, Hidden: hiddenBA, Status: status, FuelCost: cost},
	}
}

type candidate struct {
	idx  int
	dist float64
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].dist != cs[j].dist {
			return cs[i].dist < cs[j].dist
		}
		return cs[i].idx < cs[j].idx
	})
}

type Stats struct {
	Pairs    int
	Edges    int
	Chunks   int
	Isolated int
}

// Generate connects every node to the others within threshold times its
// nearest-neighbour distance, nearest first, until either end hits the
// degree cap. Source nodes are processed in chunks and each chunk's edges
// are handed to emit before the next chunk starts.
func Generate(ctx context.Context, src Source, nodes []Node, net *Network, cfg Config, emit func([]Edge) error) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	logger := slog.With("component", "warpgate", "operation", "generate", "nodes", len(nodes))

	var stats Stats
	ix := newIndex(nodes)

	for start := 0; start < len(nodes); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+chunkSize, len(nodes))
		var chunk []Edge

		for i := start; i < end; i++ {
			a := nodes[i]
			if net.Degree(a.ID) >= cfg.MaxGatesPerSystem {
				continue
			}
			nn, ok := ix.nearest(i)
			if !ok {
				continue
			}

			var cands []candidate
			ix.within(i, cfg.AdjacencyThreshold*nn, func(j int, d float64) {
				cands = append(cands, candidate{idx: j, dist: d})
			})
			sortCandidates(cands)

			for _, c := range cands {
				if net.Degree(a.ID) >= cfg.MaxGatesPerSystem {
					break
				}
				b := nodes[c.idx]
				if net.Connected(a.ID, b.ID) || net.Degree(b.ID) >= cfg.MaxGatesPerSystem {
					continue
				}
				edges := net.connect(src, a, b, c.dist, cfg)
				chunk = append(chunk, edges[0], edges[1])
				stats.Pairs++
			}
		}

		stats.Chunks++
		stats.Edges += len(chunk)
		if len(chunk) > 0 {
			if err := emit(chunk); err != nil {
				return stats, err
			}
		}
		logger.Debug("Gate chunk processed", "chunk", stats.Chunks, "from", start, "to", end, "edges", len(chunk))
	}

	for _, n := range nodes {
		if net.Degree(n.ID) == 0 {
			stats.Isolated++
		}
	}
	logger.Info("Gate network generated", "pairs", stats.Pairs, "edges", stats.Edges, "isolated", stats.Isolated)
	return stats, nil
}

const (
	minExpansionLinks = 2
	maxExpansionLinks = 3
)

// Connect links a newly added node to its two or three nearest existing
// nodes by ascending distance, ties broken by position in existing. Nodes
// already at the degree cap are passed over.
func Connect(src Source, node Node, existing []Node, net *Network, cfg Config) ([]Edge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	want := minExpansionLinks + src.IntN(maxExpansionLinks-minExpansionLinks+1)

	cands := make([]candidate, 0, len(existing))
	for i, e := range existing {
		if e.ID == node.ID {
			continue
		}
		cands = append(cands, candidate{idx: i, dist: node.distanceTo(e)})
	}
	sortCandidates(cands)

	var edges []Edge
	linked := 0
	for _, c := range cands {
		if linked >= want || net.Degree(node.ID) >= cfg.MaxGatesPerSystem {
			break
		}
		target := existing[c.idx]
		if net.Connected(node.ID, target.ID) || net.Degree(target.ID) >= cfg.MaxGatesPerSystem {
			continue
		}
		pairEdges := net.connect(src, node, target, c.dist, cfg)
		edges = append(edges, pairEdges[0], pairEdges[1])
		linked++
	}
	return edges, nil
}

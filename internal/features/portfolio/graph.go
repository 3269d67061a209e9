package portfolio

import (
	"fmt"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Edge is a directed transfer partnership out of a source program.
type Edge struct {
	Target string
	Ratio  float64
}

// Graph is the directed transfer-partner graph. It keeps configuration
// order for sources and edges so iteration is deterministic.
// A Graph is read-only once built.
type Graph struct {
	sources []string
	edges   map[string][]Edge
	ratios  map[string]map[string]float64
}

// NewGraph builds a graph from transfer rules. A source listed twice has
// its partners merged; a repeated partner keeps its first position and
// takes the later ratio. Self-loops are dropped.
func NewGraph(rules []TransferRule) (*Graph, error) {
	g := &Graph{
		edges:  make(map[string][]Edge),
		ratios: make(map[string]map[string]float64),
	}

	for _, rule := range rules {
		source := common.NormalizeCode(rule.Source)
		if source == "" {
			return nil, fmt.Errorf("transfer rule: %w", common.ErrEmptyCode)
		}
		if _, ok := g.ratios[source]; !ok {
			g.sources = append(g.sources, source)
			g.ratios[source] = make(map[string]float64)
		}

		for _, p := range rule.Partners {
			target := common.NormalizeCode(p.Partner)
			if target == "" {
				return nil, fmt.Errorf("transfer rule %s: %w", source, common.ErrEmptyCode)
			}
			if p.Ratio <= 0 {
				return nil, fmt.Errorf("transfer %s -> %s ratio %v: %w", source, target, p.Ratio, common.ErrInvalidRatio)
			}
			if target == source {
				continue
			}

			if _, exists := g.ratios[source][target]; exists {
				for i := range g.edges[source] {
					if g.edges[source][i].Target == target {
						g.edges[source][i].Ratio = p.Ratio
					}
				}
			} else {
				g.edges[source] = append(g.edges[source], Edge{Target: target, Ratio: p.Ratio})
			}
			g.ratios[source][target] = p.Ratio
		}
	}

	return g, nil
}

// DefaultGraph builds the graph from DefaultTransferRules.
func DefaultGraph() *Graph {
	g, err := NewGraph(DefaultTransferRules())
	if err != nil {
		panic(fmt.Sprintf("default transfer rules are invalid: %v", err))
	}
	return g
}

// Sources returns source codes in configuration order.
func (g *Graph) Sources() []string {
	out := make([]string, len(g.sources))
	copy(out, g.sources)
	return out
}

// Edges returns the outgoing edges of source in configuration order.
func (g *Graph) Edges(source string) []Edge {
	edges := g.edges[source]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// Ratio returns the ratio of the source -> target edge.
func (g *Graph) Ratio(source, target string) (float64, bool) {
	partners, ok := g.ratios[source]
	if !ok {
		return 0, false
	}
	ratio, ok := partners[target]
	return ratio, ok
}

// HasEdge reports whether source can transfer to target.
func (g *Graph) HasEdge(source, target string) bool {
	_, ok := g.Ratio(source, target)
	return ok
}

// Rules converts the graph back into transfer rules, in order.
func (g *Graph) Rules() []TransferRule {
	rules := make([]TransferRule, 0, len(g.sources))
	for _, source := range g.sources {
		rule := TransferRule{Source: source}
		for _, e := range g.edges[source] {
			rule.Partners = append(rule.Partners, PartnerRatio{Partner: e.Target, Ratio: e.Ratio})
		}
		rules = append(rules, rule)
	}
	return rules
}

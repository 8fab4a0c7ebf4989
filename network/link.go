package network

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/combo"
	"github.com/katalvlaran/rxnpath/core"
	"github.com/katalvlaran/rxnpath/reaction"
)

// candidate is a balanced reaction from combos[r] to the row's combination.
type candidate struct {
	r   int
	rxn *reaction.Reaction
}

// scanReactions balances every ordered pair of distinct combinations with the
// same element set. Row p lists the reactions producing combos[p], ordered by
// reactant index. Workers write only their own row.
func (n *Network) scanReactions(ctx context.Context, combos []*chem.Combination) ([][]candidate, error) {
	// Pairs with different chemical systems never balance.
	groups := make(map[string][]int)
	for i, c := range combos {
		groups[c.ElementKey()] = append(groups[c.ElementKey()], i)
	}

	rows := make([][]candidate, len(combos))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(n.cfg.workerCount())
	for p := range combos {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			prod := combos[p]
			var row []candidate
			for _, r := range groups[prod.ElementKey()] {
				if r == p {
					continue
				}
				rxn, err := n.cfg.balancer.Balance(combos[r], prod)
				if err != nil {
					if !reaction.IsNoReaction(err) {
						n.cfg.logger.Debug("balancing failed",
							slog.String("reactants", combos[r].Key()),
							slog.String("products", prod.Key()),
							slog.String("error", err.Error()),
						)
					}
					continue
				}
				row = append(row, candidate{r: r, rxn: rxn})
			}
			rows[p] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("network: reaction scan: %w", err)
	}

	return rows, nil
}

// linkPrecursors replaces the Precursors vertex of st with prec and links it
// to every Reactants vertex whose combination it contains. In complex mode
// the loopbacks are regenerated for the new precursors.
func (n *Network) linkPrecursors(ctx context.Context, st *state, prec *chem.Combination) error {
	// 1) Drop the old vertex with its edges
	if st.precID != core.InvalidNode {
		if err := st.g.RemoveVertex(st.precID); err != nil {
			return fmt.Errorf("network: remove precursors: %w", err)
		}
		st.precID = core.InvalidNode
	}

	// 2) New vertex
	id, err := st.g.AddVertex(nodeKey(PrecursorsNode, prec), Node{Kind: PrecursorsNode, Entries: prec})
	if err != nil {
		return fmt.Errorf("network: add precursors: %w", err)
	}
	st.precID, st.precursors = id, prec

	// 3) Precursor edges
	for i, c := range st.combos {
		if !c.SubsetOf(prec) {
			continue
		}
		if err = st.g.AddEdge(id, st.reactants[i], 0, precursorData); err != nil {
			return fmt.Errorf("network: precursor edge: %w", err)
		}
	}

	// 4) Loopbacks
	if n.cfg.complexLoopback {
		return n.linkComplexLoopbacks(ctx, st)
	}
	return nil
}

// linkSimpleLoopbacks adds Products(c) → Reactants(c) for every combination.
func (n *Network) linkSimpleLoopbacks(st *state) error {
	for i := range st.combos {
		if err := st.g.AddEdge(st.products[i], st.reactants[i], 0, loopbackData); err != nil {
			return fmt.Errorf("network: loopback edge: %w", err)
		}
	}
	return nil
}

// linkComplexLoopbacks replaces every loopback edge with
// Products(p) → Reactants(c) for each combination c of p ∪ precursors.
func (n *Network) linkComplexLoopbacks(ctx context.Context, st *state) error {
	for i, p := range st.combos {
		from := st.products[i]

		// 1) Remove stale loopbacks
		out, err := st.g.OutEdges(from)
		if err != nil {
			return fmt.Errorf("network: loopback edges: %w", err)
		}
		for _, e := range out {
			if d, ok := e.Data.(*EdgeData); ok && d.Kind == LoopbackEdge {
				if err = st.g.RemoveEdge(e.From, e.To); err != nil {
					return fmt.Errorf("network: loopback edges: %w", err)
				}
			}
		}

		// 2) Link every reachable combination
		subsets, err := combo.Generate(ctx, p.Union(st.precursors).Entries(), n.cfg.maxComponents)
		if err != nil {
			return fmt.Errorf("network: loopback combinations: %w", err)
		}
		for _, sub := range subsets {
			to, ok := st.g.Lookup(nodeKey(ReactantsNode, chem.NewCombination(sub...)))
			if !ok {
				continue
			}
			if err = st.g.AddEdge(from, to, 0, loopbackData); err != nil {
				return fmt.Errorf("network: loopback edge: %w", err)
			}
		}
	}
	return nil
}

// linkTarget replaces the Target vertex of st with target and links every
// Products vertex containing it.
func (n *Network) linkTarget(st *state, target chem.Entry) error {
	if st.targetID != core.InvalidNode {
		if err := st.g.RemoveVertex(st.targetID); err != nil {
			return fmt.Errorf("network: remove target: %w", err)
		}
		st.targetID = core.InvalidNode
	}

	tc := chem.NewCombination(target)
	id, err := st.g.AddVertex(nodeKey(TargetNode, tc), Node{Kind: TargetNode, Entries: tc})
	if err != nil {
		return fmt.Errorf("network: add target: %w", err)
	}
	st.targetID, st.target = id, target

	for i, c := range st.combos {
		if !c.Contains(target) {
			continue
		}
		if err = st.g.AddEdge(st.products[i], id, 0, targetData); err != nil {
			return fmt.Errorf("network: target edge: %w", err)
		}
	}
	return nil
}

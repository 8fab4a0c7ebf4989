package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/rxnpath/bfs"
	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/combo"
	"github.com/katalvlaran/rxnpath/core"
	"github.com/katalvlaran/rxnpath/pathway"
	"github.com/katalvlaran/rxnpath/yen"
)

// PathResult is the outcome of a k-shortest query.
type PathResult struct {
	// Pathways in non-decreasing total cost.
	Pathways []*pathway.Pathway
	// Requested is the k asked for.
	Requested int
	// Shortfall is Requested − len(Pathways).
	Shortfall int
}

// FindKShortestPaths returns up to k cheapest pathways from the precursors to
// the active target. Fewer than k simple paths is not an error: the result
// reports the Shortfall and a warning is logged.
//
// Errors: ErrGraphNotBuilt, *ConfigError (k < 1), ctx errors.
func (n *Network) FindKShortestPaths(ctx context.Context, k int) (res *PathResult, err error) {
	ctx, span := startSpan(ctx, "FindKShortestPaths", attribute.Int("network.k", k))
	defer func() { endSpan(span, err) }()

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}
	if k < 1 {
		return nil, &ConfigError{Field: "k", Reason: "must be >= 1"}
	}

	res, err = n.findPaths(ctx, n.st, k)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("network.paths", len(res.Pathways)))
	n.report(n.st, res)

	return res, nil
}

// findPaths runs Yen on st and assembles pathways. It may run on worker
// goroutines, so logging and observer calls are left to the caller.
func (n *Network) findPaths(ctx context.Context, st *state, k int) (*PathResult, error) {
	kr, err := yen.KShortest(ctx, st.g, st.precID, st.targetID, k)
	if err != nil {
		return nil, fmt.Errorf("network: k-shortest: %w", err)
	}

	res := &PathResult{Requested: kr.Requested, Shortfall: kr.Shortfall}
	for _, p := range kr.Paths {
		pw, err := assemble(st.g, p.Nodes)
		if err != nil {
			return nil, err
		}
		res.Pathways = append(res.Pathways, pw)
	}
	recordPathMetrics(ctx, len(res.Pathways), res.Shortfall)

	return res, nil
}

// report logs a shortfall and notifies the observer.
func (n *Network) report(st *state, res *PathResult) {
	if res.Shortfall > 0 {
		n.cfg.logger.Warn("fewer paths than requested",
			slog.String("precursors", st.precursors.String()),
			slog.String("target", st.target.Key()),
			slog.Int("requested", res.Requested),
			slog.Int("found", len(res.Pathways)),
		)
	}
	n.cfg.notify(Progress{Phase: PhasePathfinding, Done: len(res.Pathways), Total: res.Requested})
}

// assemble records (reaction, weight) for every reaction edge along nodes.
func assemble(g *core.Graph, nodes []core.NodeID) (*pathway.Pathway, error) {
	var steps []pathway.Step
	for i := 0; i+1 < len(nodes); i++ {
		e, ok := g.Edge(nodes[i], nodes[i+1])
		if !ok {
			return nil, fmt.Errorf("network: %w: %d->%d", core.ErrEdgeNotFound, nodes[i], nodes[i+1])
		}
		if d, ok := e.Data.(*EdgeData); ok && d.Kind == ReactionEdge {
			steps = append(steps, pathway.Step{Reaction: d.Reaction, Cost: e.Weight})
		}
	}
	return pathway.New(steps...)
}

// reachesTarget reports whether any path joins the Precursors and Target
// vertices of st.
func reachesTarget(ctx context.Context, st *state) (bool, error) {
	ok, err := bfs.Reachable(ctx, st.g, st.precID, st.targetID)
	if err != nil {
		return false, fmt.Errorf("network: reachability: %w", err)
	}
	return ok, nil
}

// FindPathways runs FindKShortestPaths for each target in turn and returns
// the deduplicated union. The last target stays active afterwards.
//
// Errors: ErrGraphNotBuilt, ErrNoTarget, ErrEntryNotInNetwork, ctx errors.
func (n *Network) FindPathways(ctx context.Context, targets []chem.Entry, k int) ([]*pathway.Pathway, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}
	return n.findPathwaysLocked(ctx, targets, k)
}

func (n *Network) findPathwaysLocked(ctx context.Context, targets []chem.Entry, k int) ([]*pathway.Pathway, error) {
	if len(targets) == 0 {
		return nil, ErrNoTarget
	}
	if k < 1 {
		return nil, &ConfigError{Field: "k", Reason: "must be >= 1"}
	}

	var all []*pathway.Pathway
	for _, t := range targets {
		if err := n.checkEntry(t); err != nil {
			return nil, err
		}
		if n.st.target.Key() != t.Key() {
			if err := n.linkTarget(n.st, t); err != nil {
				return nil, err
			}
		}
		res, err := n.findPaths(ctx, n.st, k)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Pathways...)
		n.report(n.st, res)
	}

	return pathway.Dedupe(all), nil
}

// FindBestStarters searches, for every combination of entries other than the
// active target, the DefaultStarterPaths cheapest pathways to the target. The
// union is deduplicated and sorted by total cost.
//
// Each starter set runs on its own clone of the graph, in parallel. Starter
// sets that cannot reach the target, or whose search fails, are skipped.
//
// Errors: ErrGraphNotBuilt, ctx errors.
func (n *Network) FindBestStarters(ctx context.Context) (out []*pathway.Pathway, err error) {
	ctx, span := startSpan(ctx, "FindBestStarters")
	defer func() { endSpan(span, err) }()

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}

	// 1) Candidate starter sets
	pool := make([]chem.Entry, 0, len(n.entries))
	for _, e := range n.entries {
		if e.Key() != n.st.target.Key() {
			pool = append(pool, e)
		}
	}
	sets, err := combo.Generate(ctx, pool, n.cfg.maxComponents)
	if err != nil {
		return nil, fmt.Errorf("network: starter combinations: %w", err)
	}

	// 2) Search each on a private copy
	results := make([][]*pathway.Pathway, len(sets))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(n.cfg.workerCount())
	for i, set := range sets {
		eg.Go(func() error {
			st := n.st.clone()
			prec := chem.NewCombination(set...)
			if err := n.linkPrecursors(gctx, st, prec); err != nil {
				if gctx.Err() != nil {
					return err
				}
				n.cfg.logger.Debug("starter set skipped", slog.String("starters", prec.String()), slog.String("error", err.Error()))
				return nil
			}
			if ok, err := reachesTarget(gctx, st); err != nil || !ok {
				return err
			}
			res, err := n.findPaths(gctx, st, DefaultStarterPaths)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				n.cfg.logger.Debug("starter set skipped", slog.String("starters", prec.String()), slog.String("error", err.Error()))
				return nil
			}
			results[i] = res.Pathways
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("network: best starters: %w", err)
		}
		return nil, err
	}

	// 3) Merge
	for _, r := range results {
		out = append(out, r...)
	}
	out = pathway.Dedupe(out)
	pathway.SortByTotalCost(out)

	return out, nil
}

// FindCombinedPathways finds k pathways to each target, then mixes up to
// maxCombos of them into CombinedPathways with a balanced net reaction from
// the precursors to the targets. A nil targets uses the targets given to
// Build. Results are sorted by average cost.
//
// Errors: ErrGraphNotBuilt, ErrEntryNotInNetwork, *ConfigError, ctx errors.
func (n *Network) FindCombinedPathways(ctx context.Context, k int, targets []chem.Entry, maxCombos int) (out []*pathway.CombinedPathway, err error) {
	ctx, span := startSpan(ctx, "FindCombinedPathways",
		attribute.Int("network.k", k),
		attribute.Int("network.max_combos", maxCombos),
	)
	defer func() { endSpan(span, err) }()

	if maxCombos < 1 {
		return nil, &ConfigError{Field: "max_num_combos", Reason: "must be >= 1"}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st == nil {
		return nil, ErrGraphNotBuilt
	}
	if targets == nil {
		targets = n.st.targets
	}

	paths, err := n.findPathwaysLocked(ctx, targets, k)
	if err != nil {
		return nil, err
	}
	out, err = pathway.Combine(ctx, paths, n.st.precursors.Entries(), targets,
		pathway.WithMaxCombos(maxCombos),
		pathway.WithTolerance(n.cfg.tolerance),
		pathway.WithBalancer(n.cfg.balancer),
	)
	if err != nil {
		return nil, fmt.Errorf("network: combine: %w", err)
	}
	n.cfg.logger.Info("combined pathways",
		slog.Int("pathways", len(paths)),
		slog.Int("combined", len(out)),
	)

	return out, nil
}

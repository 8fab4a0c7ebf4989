package network_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/cost"
	"github.com/katalvlaran/rxnpath/network"
	"github.com/katalvlaran/rxnpath/reaction"
)

var (
	bao  = chem.MustEntry("BaO", -5.7)
	tio2 = chem.MustEntry("TiO2", -9.7)
	bto  = chem.MustEntry("BaTiO3", -16.4)
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// built returns a network over {BaO, TiO2, BaTiO3} built for BaO + TiO2 → BaTiO3.
func built(t *testing.T, opts ...network.Option) *network.Network {
	t.Helper()
	n, err := network.New([]chem.Entry{bao, tio2, bto}, append([]network.Option{network.WithLogger(quiet())}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, n.Build(context.Background(), []chem.Entry{bao, tio2}, []chem.Entry{bto}))
	return n
}

func snapshot(t *testing.T, n *network.Network) *network.Snapshot {
	t.Helper()
	s, err := n.Snapshot()
	require.NoError(t, err)
	return s
}

func edgesOfKind(s *network.Snapshot, kind string) []network.EdgeRecord {
	var out []network.EdgeRecord
	for _, e := range s.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestBuild_SingleReactionPath(t *testing.T) {
	n := built(t, network.WithMaxComponents(2), network.WithCostFunction(cost.Softplus))

	res, err := n.FindKShortestPaths(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, res.Pathways, 1)
	assert.Equal(t, 0, res.Shortfall)

	pw := res.Pathways[0]
	require.Equal(t, 1, pw.Len())
	step := pw.Steps()[0]
	assert.Equal(t, "BaO + TiO2 -> BaTiO3", step.Reaction.String())
	assert.InDelta(t, -0.2, step.Reaction.EnergyPerAtom(), 1e-9)
	assert.InDelta(t, cost.SoftplusAt(step.Reaction.EnergyPerAtom(), cost.SoftplusTemp), step.Cost, 1e-12)
	assert.Greater(t, step.Cost, 0.0)
}

func TestFindKShortestPaths_Shortfall(t *testing.T) {
	n := built(t)

	res, err := n.FindKShortestPaths(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, res.Pathways, 1)
	assert.Equal(t, 5, res.Requested)
	assert.Equal(t, 4, res.Shortfall)

	_, err = n.FindKShortestPaths(context.Background(), 0)
	var cerr *network.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "k", cerr.Field)
}

// allowList balances only the listed "reactants>products" pairs.
type allowList struct {
	inner   reaction.Balancer
	allowed map[string]bool
}

func (b allowList) Balance(r, p *chem.Combination) (*reaction.Reaction, error) {
	if !b.allowed[r.Key()+">"+p.Key()] {
		return nil, reaction.ErrNoReaction
	}
	return b.inner.Balance(r, p)
}

func TestFindKShortestPaths_TwoRoutes(t *testing.T) {
	ba2t := chem.MustEntry("Ba2TiO4", -22.3)
	bal := allowList{inner: reaction.NewNullSpaceBalancer(), allowed: map[string]bool{
		"BaO|TiO2>BaTiO3":     true,
		"BaO|TiO2>Ba2TiO4":    true,
		"Ba2TiO4|TiO2>BaTiO3": true,
	}}
	n, err := network.New([]chem.Entry{bao, tio2, bto, ba2t}, network.WithLogger(quiet()), network.WithBalancer(bal))
	require.NoError(t, err)
	require.NoError(t, n.Build(context.Background(), []chem.Entry{bao, tio2}, []chem.Entry{bto}))

	res, err := n.FindKShortestPaths(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, res.Pathways, 2)
	assert.Equal(t, 3, res.Shortfall)

	assert.Equal(t, 1, res.Pathways[0].Len())
	require.Equal(t, 2, res.Pathways[1].Len())
	assert.Equal(t, "2 BaO + TiO2 -> Ba2TiO4", res.Pathways[1].Steps()[0].Reaction.String())
	assert.Equal(t, "0.5 Ba2TiO4 + 0.5 TiO2 -> BaTiO3", res.Pathways[1].Steps()[1].Reaction.String())
	assert.LessOrEqual(t, res.Pathways[0].TotalCost(), res.Pathways[1].TotalCost())
	assert.Equal(t, []string{"Ba2TiO4"}, keys(res.Pathways[1].Intermediates()))
}

func keys(es []chem.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key()
	}
	return out
}

func TestBuild_Stats(t *testing.T) {
	complex := built(t)
	st, err := complex.Stats()
	require.NoError(t, err)
	assert.Equal(t, network.Stats{Combinations: 6, Nodes: 14, Edges: 35, ReactionEdges: 2}, st)

	simple := built(t, network.WithComplexLoopback(false))
	st, err = simple.Stats()
	require.NoError(t, err)
	assert.Equal(t, network.Stats{Combinations: 6, Nodes: 14, Edges: 14, ReactionEdges: 2}, st)
}

func TestBuild_SimpleLoopbacks(t *testing.T) {
	s := snapshot(t, built(t, network.WithComplexLoopback(false)))

	loops := edgesOfKind(s, "loopback")
	require.Len(t, loops, 6)
	for _, e := range loops {
		from := strings.TrimPrefix(e.From, "products/")
		to := strings.TrimPrefix(e.To, "reactants/")
		assert.Equal(t, from, to, "loopback %s -> %s", e.From, e.To)
		assert.Zero(t, e.Weight)
	}
}

func TestBuild_ComplexLoopbacks(t *testing.T) {
	s := snapshot(t, built(t))

	// Products{BaTiO3} reaches every combination of BaTiO3 with the precursors.
	var targets []string
	for _, e := range edgesOfKind(s, "loopback") {
		if e.From == "products/BaTiO3" {
			targets = append(targets, e.To)
		}
	}
	assert.ElementsMatch(t, []string{
		"reactants/BaO", "reactants/TiO2", "reactants/BaTiO3",
		"reactants/BaO|TiO2", "reactants/BaO|BaTiO3", "reactants/BaTiO3|TiO2",
	}, targets)

	prec := edgesOfKind(s, "precursor")
	require.Len(t, prec, 3)
	for _, e := range prec {
		assert.Equal(t, "precursors/BaO|TiO2", e.From)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := snapshot(t, built(t, network.WithWorkerCount(1)))
	b := snapshot(t, built(t, network.WithWorkerCount(8)))
	assert.Equal(t, a, b)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()
	n, err := network.New([]chem.Entry{bao, tio2, bto}, network.WithLogger(quiet()))
	require.NoError(t, err)

	_, err = n.FindKShortestPaths(ctx, 1)
	assert.ErrorIs(t, err, network.ErrGraphNotBuilt)
	assert.ErrorIs(t, n.SetPrecursors(ctx, []chem.Entry{bao}), network.ErrGraphNotBuilt)
	assert.ErrorIs(t, n.SetTarget(ctx, bao), network.ErrGraphNotBuilt)
	assert.ErrorIs(t, n.SetCostFunction(cost.Bipartite), network.ErrGraphNotBuilt)
	_, err = n.Snapshot()
	assert.ErrorIs(t, err, network.ErrGraphNotBuilt)
	_, err = n.FindBestStarters(ctx)
	assert.ErrorIs(t, err, network.ErrGraphNotBuilt)

	stranger := chem.MustEntry("SrO", -6.1)
	assert.ErrorIs(t, n.Build(ctx, []chem.Entry{bao, stranger}, []chem.Entry{bto}), network.ErrEntryNotInNetwork)
	assert.ErrorIs(t, n.Build(ctx, []chem.Entry{bao}, []chem.Entry{stranger}), network.ErrEntryNotInNetwork)
	assert.ErrorIs(t, n.Build(ctx, nil, []chem.Entry{bto}), network.ErrNoPrecursors)
	assert.ErrorIs(t, n.Build(ctx, []chem.Entry{bao}, nil), network.ErrNoTarget)
	assert.False(t, n.Built())

	require.NoError(t, n.Build(ctx, []chem.Entry{bao, tio2}, []chem.Entry{bto}))
	assert.ErrorIs(t, n.SetTarget(ctx, stranger), network.ErrEntryNotInNetwork)
	assert.ErrorIs(t, n.SetPrecursors(ctx, []chem.Entry{stranger}), network.ErrEntryNotInNetwork)
}

func TestNew_ConfigErrors(t *testing.T) {
	cases := []struct {
		name  string
		opt   network.Option
		field string
	}{
		{"components", network.WithMaxComponents(0), "max_num_components"},
		{"workers", network.WithWorkerCount(-1), "workers"},
		{"tolerance", network.WithTolerance(0), "balance_tolerance"},
		{"balancer", network.WithBalancer(nil), "balancer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := network.New([]chem.Entry{bao}, tc.opt)
			var cerr *network.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}

func TestBuild_Canceled(t *testing.T) {
	n, err := network.New([]chem.Entry{bao, tio2, bto}, network.WithLogger(quiet()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = n.Build(ctx, []chem.Entry{bao, tio2}, []chem.Entry{bto})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, n.Built())
}

func TestSetPrecursors_MatchesRebuild(t *testing.T) {
	for _, complexMode := range []bool{true, false} {
		a := built(t, network.WithComplexLoopback(complexMode))
		require.NoError(t, a.SetPrecursors(context.Background(), []chem.Entry{bto}))

		b, err := network.New([]chem.Entry{bao, tio2, bto}, network.WithLogger(quiet()), network.WithComplexLoopback(complexMode))
		require.NoError(t, err)
		require.NoError(t, b.Build(context.Background(), []chem.Entry{bto}, []chem.Entry{bto}))

		assert.Equal(t, snapshot(t, b), snapshot(t, a), "complex=%v", complexMode)
	}
}

func TestSetPrecursors_Unchanged(t *testing.T) {
	n := built(t)
	before := snapshot(t, n)
	require.NoError(t, n.SetPrecursors(context.Background(), []chem.Entry{tio2, bao}))
	assert.Equal(t, before, snapshot(t, n))
}

func TestSetTarget_MatchesRebuild(t *testing.T) {
	a := built(t)
	require.NoError(t, a.SetTarget(context.Background(), bao))

	b, err := network.New([]chem.Entry{bao, tio2, bto}, network.WithLogger(quiet()))
	require.NoError(t, err)
	require.NoError(t, b.Build(context.Background(), []chem.Entry{bao, tio2}, []chem.Entry{bao}))

	sa, sb := snapshot(t, a), snapshot(t, b)
	assert.Equal(t, sb.Target, sa.Target)
	assert.Equal(t, sb.Nodes, sa.Nodes)
	assert.Equal(t, sb.Edges, sa.Edges)

	tgt, err := a.Target()
	require.NoError(t, err)
	assert.Equal(t, "BaO", tgt.Key())
}

func TestSetTarget_RepeatedRelinks(t *testing.T) {
	ctx := context.Background()
	n := built(t)
	for i := 0; i < 20; i++ {
		require.NoError(t, n.SetTarget(ctx, bao))
		require.NoError(t, n.SetPrecursors(ctx, []chem.Entry{bto}))
		require.NoError(t, n.SetTarget(ctx, bto))
		require.NoError(t, n.SetPrecursors(ctx, []chem.Entry{bao, tio2}))
	}

	fresh := built(t)
	assert.Equal(t, snapshot(t, fresh), snapshot(t, n))
	want, err := fresh.Stats()
	require.NoError(t, err)
	got, err := n.Stats()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	res, err := n.FindKShortestPaths(ctx, 1)
	require.NoError(t, err)
	require.Len(t, res.Pathways, 1)
	assert.Equal(t, "BaO + TiO2 -> BaTiO3", res.Pathways[0].Steps()[0].Reaction.String())
}

func TestSetCostFunction(t *testing.T) {
	n := built(t, network.WithCostFunction(cost.Bipartite))
	weights := func() map[string]float64 {
		out := make(map[string]float64)
		for _, e := range edgesOfKind(snapshot(t, n), "reaction") {
			out[e.From+">"+e.To] = e.Weight
		}
		return out
	}

	// Bipartite: the most negative reaction maps to 0, positives to 2w+1.
	first := weights()
	assert.InDelta(t, 0, first["reactants/BaO|TiO2>products/BaTiO3"], 1e-12)
	assert.InDelta(t, 1.4, first["reactants/BaTiO3>products/BaO|TiO2"], 1e-12)

	require.NoError(t, n.SetCostFunction(cost.Bipartite))
	assert.Equal(t, first, weights())

	require.NoError(t, n.SetCostFunction(cost.EnthalpiesPositive))
	ep := weights()
	assert.InDelta(t, 0, ep["reactants/BaO|TiO2>products/BaTiO3"], 1e-12)
	assert.InDelta(t, 0.4, ep["reactants/BaTiO3>products/BaO|TiO2"], 1e-12)

	require.NoError(t, n.SetCostFunction(cost.Softplus))
	require.NoError(t, n.SetCostFunction(cost.Bipartite))
	assert.Equal(t, first, weights())
	assert.Equal(t, cost.Bipartite, n.CostFunction())

	// Unknown strategies weigh nothing.
	require.NoError(t, n.SetCostFunction("nope"))
	for _, w := range weights() {
		assert.Zero(t, w)
	}
}

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	n := built(t, network.WithCostFunction(cost.Arrhenius))
	orig := snapshot(t, n)

	raw, err := json.Marshal(orig)
	require.NoError(t, err)
	var decoded network.Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	r, err := network.Restore(ctx, &decoded, network.WithLogger(quiet()))
	require.NoError(t, err)
	assert.Equal(t, cost.Arrhenius, r.CostFunction())
	assert.Equal(t, orig, snapshot(t, r))

	want, err := n.FindKShortestPaths(ctx, 3)
	require.NoError(t, err)
	got, err := r.FindKShortestPaths(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got.Pathways, len(want.Pathways))
	for i := range want.Pathways {
		assert.Equal(t, want.Pathways[i].Key(), got.Pathways[i].Key())
		assert.InDelta(t, want.Pathways[i].TotalCost(), got.Pathways[i].TotalCost(), 1e-12)
	}
}

func TestRestore_Invalid(t *testing.T) {
	ctx := context.Background()
	_, err := network.Restore(ctx, nil)
	assert.ErrorIs(t, err, network.ErrBadSnapshot)

	s := snapshot(t, built(t))
	s.Edges = append(s.Edges, network.EdgeRecord{From: "products/BaO", To: "reactants/Nope", Kind: "loopback"})
	_, err = network.Restore(ctx, s, network.WithLogger(quiet()))
	assert.ErrorIs(t, err, network.ErrBadSnapshot)

	s = snapshot(t, built(t))
	s.Nodes = s.Nodes[1:]
	_, err = network.Restore(ctx, s, network.WithLogger(quiet()))
	assert.ErrorIs(t, err, network.ErrBadSnapshot)
}

func TestFindBestStarters(t *testing.T) {
	n := built(t)

	paths, err := n.FindBestStarters(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "BaO + TiO2 -> BaTiO3", paths[0].Steps()[0].Reaction.String())

	// The searched clones leave the network alone.
	prec, err := n.Precursors()
	require.NoError(t, err)
	require.Len(t, prec, 2)
}

func TestFindCombinedPathways(t *testing.T) {
	ctx := context.Background()
	n := built(t)

	out, err := n.FindCombinedPathways(ctx, 2, nil, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0].Valid())
	assert.Equal(t, "BaO + TiO2 -> BaTiO3", out[0].NetReaction().String())

	_, err = n.FindCombinedPathways(ctx, 2, nil, 0)
	var cerr *network.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "max_num_combos", cerr.Field)
}

func TestFindPathways_MultipleTargets(t *testing.T) {
	n := built(t)

	paths, err := n.FindPathways(context.Background(), []chem.Entry{bto, bto}, 2)
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	_, err = n.FindPathways(context.Background(), nil, 2)
	assert.ErrorIs(t, err, network.ErrNoTarget)
}

func TestClone_Independent(t *testing.T) {
	ctx := context.Background()
	n := built(t)
	before := snapshot(t, n)

	c := n.Clone()
	require.NoError(t, c.SetPrecursors(ctx, []chem.Entry{bto}))
	require.NoError(t, c.SetTarget(ctx, bao))

	assert.Equal(t, before, snapshot(t, n))
}

func TestObserver_Phases(t *testing.T) {
	var phases []network.Phase
	n := built(t, network.WithObserver(func(p network.Progress) {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}))
	_, err := n.FindKShortestPaths(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []network.Phase{
		network.PhaseCombinations,
		network.PhaseNodes,
		network.PhaseReactionEdges,
		network.PhaseWeights,
		network.PhaseStructural,
		network.PhasePathfinding,
	}, phases)
}

func TestConfigError_Message(t *testing.T) {
	err := error(&network.ConfigError{Field: "k", Reason: "must be >= 1"})
	assert.Equal(t, "network: invalid k: must be >= 1", err.Error())
	var cerr *network.ConfigError
	assert.True(t, errors.As(err, &cerr))
}

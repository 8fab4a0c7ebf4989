package pathway_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/pathway"
	"github.com/katalvlaran/rxnpath/reaction"
)

var (
	bao  = chem.MustEntry("BaO", -5.7)
	tio2 = chem.MustEntry("TiO2", -9.7)
	bto  = chem.MustEntry("BaTiO3", -16.4)
	ba2t = chem.MustEntry("Ba2TiO4", -22.3)
	bao2 = chem.MustEntry("BaO2", -6.5)
	o2   = chem.MustEntry("O2", 0)
)

func rxn(t *testing.T, r, p []chem.Entry) *reaction.Reaction {
	t.Helper()
	out, err := reaction.NewNullSpaceBalancer().Balance(chem.NewCombination(r...), chem.NewCombination(p...))
	require.NoError(t, err)
	return out
}

func path(t *testing.T, steps ...pathway.Step) *pathway.Pathway {
	t.Helper()
	p, err := pathway.New(steps...)
	require.NoError(t, err)
	return p
}

func keys(es []chem.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key()
	}
	return out
}

func TestPathway_Derived(t *testing.T) {
	r1 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{ba2t})
	r2 := rxn(t, []chem.Entry{ba2t, tio2}, []chem.Entry{bto})
	p := path(t, pathway.Step{Reaction: r1, Cost: 0.2}, pathway.Step{Reaction: r2, Cost: 0.4})

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"Ba2TiO4", "BaO", "TiO2"}, keys(p.AllReactants()))
	assert.Equal(t, []string{"Ba2TiO4", "BaTiO3"}, keys(p.AllProducts()))
	assert.Equal(t, []string{"BaO", "TiO2"}, keys(p.Reactants()))
	assert.Equal(t, []string{"BaTiO3"}, keys(p.Products()))
	assert.Equal(t, []string{"Ba2TiO4"}, keys(p.Intermediates()))
	assert.Len(t, p.Compositions(), 4)
	assert.InDelta(t, 0.6, p.TotalCost(), 1e-12)
	assert.InDelta(t, 0.3, p.AverageCost(), 1e-12)
	assert.InDelta(t, r1.Energy()+r2.Energy(), p.Energy(), 1e-12)
	assert.InDelta(t, r1.EnergyPerAtom()+r2.EnergyPerAtom(), p.EnergyPerAtom(), 1e-12)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var rec pathway.Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "2 BaO + TiO2 -> Ba2TiO4", rec.Steps[0].Equation)
	assert.Equal(t, []string{"Ba2TiO4"}, rec.Intermediates)
}

func TestPathway_NewRejectsEmpty(t *testing.T) {
	_, err := pathway.New()
	require.ErrorIs(t, err, pathway.ErrEmptyPathway)
	_, err = pathway.New(pathway.Step{Cost: 1})
	require.ErrorIs(t, err, pathway.ErrEmptyPathway)
}

func TestDedupeAndSort(t *testing.T) {
	r1 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{bto})
	r2 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{ba2t})
	a := path(t, pathway.Step{Reaction: r1, Cost: 3})
	b := path(t, pathway.Step{Reaction: r2, Cost: 1})
	a2 := path(t, pathway.Step{Reaction: r1, Cost: 3})

	got := pathway.Dedupe([]*pathway.Pathway{a, b, a2, nil})
	require.Len(t, got, 2)
	pathway.SortByTotalCost(got)
	assert.Same(t, b, got[0])
	assert.Same(t, a, got[1])
}

func TestCombinedPathway_SingleValid(t *testing.T) {
	p := path(t, pathway.Step{Reaction: rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{bto}), Cost: 0.5})
	cp, err := pathway.NewCombinedPathway([]*pathway.Pathway{p}, []chem.Entry{bao, tio2}, []chem.Entry{bto}, 0)
	require.NoError(t, err)
	require.True(t, cp.Valid())
	require.NotNil(t, cp.NetReaction())
	assert.Equal(t, "BaO + TiO2 -> BaTiO3", cp.NetReaction().String())
	assert.Equal(t, []float64{1}, cp.Coefficients())
	assert.InDelta(t, 0.5, cp.AverageCost(), 1e-12)
}

func TestCombinedPathway_IntermediatesCancel(t *testing.T) {
	r1 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{ba2t})
	r2 := rxn(t, []chem.Entry{ba2t, tio2}, []chem.Entry{bto})
	p1 := path(t, pathway.Step{Reaction: r1, Cost: 0.1})
	p2 := path(t, pathway.Step{Reaction: r2, Cost: 0.3})

	cp, err := pathway.NewCombinedPathway([]*pathway.Pathway{p1, p2}, []chem.Entry{bao, tio2}, []chem.Entry{bto}, 1e-6)
	require.NoError(t, err)
	require.True(t, cp.Valid())
	net := cp.NetReaction()
	require.NotNil(t, net)
	assert.Equal(t, 0.0, net.Coefficient("Ba2TiO4"))
	assert.InDelta(t, net.Coefficient("BaO"), net.Coefficient("TiO2"), 1e-9)
	assert.InDelta(t, -net.Coefficient("BaO"), net.Coefficient("BaTiO3"), 1e-9)
	for _, x := range cp.Coefficients() {
		assert.Greater(t, x, 0.0)
	}
	assert.InDelta(t, 0.2, cp.AverageCost(), 1e-12)
}

func TestCombinedPathway_Invalid(t *testing.T) {
	r1 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{ba2t})
	p1 := path(t, pathway.Step{Reaction: r1, Cost: 0.1})

	// Target never produced.
	cp, err := pathway.NewCombinedPathway([]*pathway.Pathway{p1}, []chem.Entry{bao, tio2}, []chem.Entry{bto}, 0)
	require.NoError(t, err)
	assert.False(t, cp.Valid())
	assert.Nil(t, cp.NetReaction())

	// Reactants differ from the declared precursors.
	cp, err = pathway.NewCombinedPathway([]*pathway.Pathway{p1}, []chem.Entry{bao, tio2, bao2}, []chem.Entry{ba2t}, 0)
	require.NoError(t, err)
	assert.Nil(t, cp.NetReaction())

	raw, err := json.Marshal(cp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "net_reaction")

	_, err = pathway.NewCombinedPathway(nil, nil, nil, 0)
	require.ErrorIs(t, err, pathway.ErrNoPaths)
}

func TestCombine(t *testing.T) {
	r1 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{ba2t})
	r2 := rxn(t, []chem.Entry{ba2t, tio2}, []chem.Entry{bto})
	r3 := rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{bto})
	p1 := path(t, pathway.Step{Reaction: r1, Cost: 0.1})
	p2 := path(t, pathway.Step{Reaction: r2, Cost: 0.3})
	p3 := path(t, pathway.Step{Reaction: r3, Cost: 0.5})

	got, err := pathway.Combine(context.Background(), []*pathway.Pathway{p1, p2, p3},
		[]chem.Entry{bao, tio2}, []chem.Entry{bto}, pathway.WithMaxCombos(2))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for i, cp := range got {
		require.NotNil(t, cp.NetReaction())
		if i > 0 {
			require.LessOrEqual(t, got[i-1].AverageCost(), cp.AverageCost())
		}
	}
	seen := map[string]bool{}
	for _, cp := range got {
		require.False(t, seen[cp.Key()])
		seen[cp.Key()] = true
	}
	require.True(t, seen[p3.Key()], "single direct pathway must be kept")
}

func TestCombine_LeftoverProducts(t *testing.T) {
	// BaO2 -> BaO + O2 leaves O2 unused; no leftover reaction reaches BaO.
	r := rxn(t, []chem.Entry{bao2}, []chem.Entry{bao, o2})
	p := path(t, pathway.Step{Reaction: r, Cost: 0.1})

	got, err := pathway.Combine(context.Background(), []*pathway.Pathway{p},
		[]chem.Entry{bao2}, []chem.Entry{bao})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BaO2 -> BaO + 0.5 O2", got[0].NetReaction().String())

	got, err = pathway.Combine(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCombine_Canceled(t *testing.T) {
	p := path(t, pathway.Step{Reaction: rxn(t, []chem.Entry{bao, tio2}, []chem.Entry{bto}), Cost: 0.5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pathway.Combine(ctx, []*pathway.Pathway{p}, []chem.Entry{bao, tio2}, []chem.Entry{bto})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCombineOptions_Panic(t *testing.T) {
	assert.Panics(t, func() { pathway.WithMaxCombos(0) })
	assert.Panics(t, func() { pathway.WithTolerance(0) })
	assert.Panics(t, func() { pathway.WithBalancer(nil) })
}

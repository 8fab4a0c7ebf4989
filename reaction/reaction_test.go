package reaction_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/reaction"
)

var (
	bao   = chem.MustEntry("BaO", -5.7)
	tio2  = chem.MustEntry("TiO2", -9.7)
	bto   = chem.MustEntry("BaTiO3", -16.4)
	ba2t  = chem.MustEntry("Ba2TiO4", -22.3)
	bao2  = chem.MustEntry("BaO2", -6.5)
	o2    = chem.MustEntry("O2", 0)
	sro   = chem.MustEntry("SrO", -6.1)
	combo = chem.NewCombination
)

func TestBalance_Simple(t *testing.T) {
	b := reaction.NewNullSpaceBalancer()
	rxn, err := b.Balance(combo(bao, tio2), combo(bto))
	require.NoError(t, err)
	require.Equal(t, "BaO + TiO2 -> BaTiO3", rxn.String())
	require.Equal(t, rxn.String(), rxn.Key())
	require.InDelta(t, -1.0, rxn.Energy(), 1e-9)
	require.InDelta(t, 5.0, rxn.NumAtoms(), 1e-9)
	require.InDelta(t, -0.2, rxn.EnergyPerAtom(), 1e-9)
	require.Equal(t, -1.0, rxn.Coefficient("BaO"))
	require.Equal(t, 1.0, rxn.Coefficient("BaTiO3"))
	require.Equal(t, 0.0, rxn.Coefficient("SrO"))
}

func TestBalance_NonUnitCoefficients(t *testing.T) {
	b := reaction.NewNullSpaceBalancer()
	rxn, err := b.Balance(combo(bao, tio2), combo(ba2t))
	require.NoError(t, err)
	require.Equal(t, "2 BaO + TiO2 -> Ba2TiO4", rxn.String())
	require.Equal(t, "BaO + TiO2 -> Ba2TiO4", rxn.Key())
	require.InDelta(t, -22.3-(2*-5.7)-(-9.7), rxn.Energy(), 1e-9)

	idx := map[string]int{"BaO": 0, "TiO2": 1, "Ba2TiO4": 2}
	require.Equal(t, []float64{-2, -1, 1}, rxn.Vector(idx, 3))
}

func TestBalance_Failures(t *testing.T) {
	b := reaction.NewNullSpaceBalancer()
	cases := []struct {
		name       string
		r, p       *chem.Combination
		sentinel   error
		noReaction bool
	}{
		{"element mismatch", combo(bao), combo(sro), reaction.ErrNoReaction, true},
		{"trivially unbalanceable", combo(bao), combo(bao2), reaction.ErrNoReaction, true},
		{"two independent reactions", combo(bao, tio2), combo(bto, ba2t), reaction.ErrUnderdetermined, true},
		{"spectator", combo(bao, o2), combo(bao2, bao), reaction.ErrUnderdetermined, true},
		{"side change", combo(bao2), combo(bao, tio2), reaction.ErrNoReaction, true},
		{"negative coefficient", combo(bto), combo(bao, ba2t), reaction.ErrSideChange, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Balance(tc.r, tc.p)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.sentinel), "got %v", err)
			require.Equal(t, tc.noReaction, reaction.IsNoReaction(err))
		})
	}
}

func TestBalance_Decomposition(t *testing.T) {
	b := reaction.NewNullSpaceBalancer()
	rxn, err := b.Balance(combo(bao2), combo(bao, o2))
	require.NoError(t, err)
	require.Equal(t, "BaO2 -> BaO + 0.5 O2", rxn.String())
}

func TestNew_RejectsBadCoefficients(t *testing.T) {
	_, err := reaction.New(
		[]reaction.Component{{Entry: bao, Coeff: 0}},
		[]reaction.Component{{Entry: bto, Coeff: 1}},
	)
	require.ErrorIs(t, err, reaction.ErrDegenerate)

	_, err = reaction.New(nil, []reaction.Component{{Entry: bto, Coeff: 1}})
	require.ErrorIs(t, err, reaction.ErrNoReaction)
}

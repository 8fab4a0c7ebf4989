package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/config"
	"github.com/katalvlaran/rxnpath/network"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.MaxComponents)
	assert.Equal(t, "softplus", cfg.CostFunction)
	assert.True(t, cfg.ComplexLoopback)
	assert.Nil(t, cfg.Cutoff.Value())
	assert.Equal(t, config.StableOnly, cfg.Cutoff.String())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := config.Parse([]byte(`
max_num_components: 3
cost_function: bipartite
complex_loopback: false
k: 10
energy_above_hull_cutoff: 0.05
include_polymorphs: true
workers: 4
build_timeout: 90s
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxComponents)
	assert.Equal(t, "bipartite", cfg.CostFunction)
	assert.False(t, cfg.ComplexLoopback)
	assert.Equal(t, 10, cfg.K)
	require.NotNil(t, cfg.Cutoff.Value())
	assert.InDelta(t, 0.05, *cfg.Cutoff.Value(), 1e-12)
	assert.True(t, cfg.IncludePolymorphs)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.BuildTimeout)
	assert.Equal(t, time.Minute, cfg.SearchTimeout, "untouched keys keep defaults")
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParse_StableOnly(t *testing.T) {
	cfg, err := config.Parse([]byte("energy_above_hull_cutoff: stable-only\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Cutoff.Value())

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "energy_above_hull_cutoff: stable-only")
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		yaml  string
		field string
	}{
		{"components", "max_num_components: 0", "max_num_components"},
		{"cost", "cost_function: cheapest", "cost_function"},
		{"k", "k: 0", "k"},
		{"combos", "max_num_combos: 0", "max_num_combos"},
		{"cutoff", "energy_above_hull_cutoff: -0.1", "energy_above_hull_cutoff"},
		{"workers", "workers: -2", "workers"},
		{"tolerance", "balance_tolerance: 0", "balance_tolerance"},
		{"timeout", "search_timeout: -1s", "search_timeout"},
		{"level", "log_level: loud", "log_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.yaml))
			var cerr *config.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
			assert.NotEmpty(t, cerr.Reason)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := config.Parse([]byte("unknown_key: 1"))
	require.Error(t, err)

	_, err = config.Parse([]byte("energy_above_hull_cutoff: lots"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "rxnpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cost_function: arrhenius\n"), 0o600))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arrhenius", cfg.CostFunction)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNetworkOptions(t *testing.T) {
	cfg := config.Default()
	cfg.MaxComponents = 1
	cfg.CostFunction = "rectified"
	cfg.Cutoff = config.CutoffAt(0.1)

	bao := chem.MustEntry("BaO", -5.7)
	bao2 := chem.MustEntry("BaO2", -6.5)
	meta := chem.MustEntry("Ba2O", -3.0)
	hull := chem.StaticHull{"BaO": 0, "BaO2": 0.05, "Ba2O": 0.3}

	n, err := network.New([]chem.Entry{bao, bao2, meta}, cfg.NetworkOptions(hull, nil)...)
	require.NoError(t, err)
	assert.Len(t, n.Entries(), 2, "entries beyond the cutoff are filtered")
	assert.Equal(t, "rectified", string(n.CostFunction()))
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/config"
	"github.com/katalvlaran/rxnpath/network"
	"github.com/katalvlaran/rxnpath/store"
)

// Version is the CLI version.
var Version = "0.1.0"

var (
	errNoEntries     = errors.New("rxnpath: --entries is required")
	errNoPrecursors  = errors.New("rxnpath: --precursors is required")
	errNoTarget      = errors.New("rxnpath: --target is required")
	errNoSnapshotDir = errors.New("rxnpath: --snapshot-dir (or snapshot_dir in the config) is required")
)

// app carries flag values and what setup derives from them.
type app struct {
	configPath   string
	entriesPath  string
	precursors   []string
	targets      []string
	k            int
	maxCombos    int
	costFunction string
	snapshotDir  string
	fromSnapshot string
	logJSON      bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "rxnpath",
		Short: "Find reaction pathways in a chemical reaction network",
		Long: `rxnpath builds a reaction network over a set of material entries and
searches it for the cheapest pathways from precursors to a target.

Entries are read from a YAML or JSON list of {formula, energy, e_above_hull, tag}.
Settings come from --config (YAML) and can be overridden by flags.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&a.entriesPath, "entries", "", "Path to the entries file (YAML or JSON)")
	pf.StringSliceVar(&a.precursors, "precursors", nil, "Precursor formulas, comma separated")
	pf.StringSliceVar(&a.targets, "target", nil, "Target formula; repeat or comma separate for several")
	pf.IntVar(&a.k, "k", 0, "Number of paths per target (overrides config)")
	pf.StringVar(&a.costFunction, "cost", "", "Cost function (overrides config)")
	pf.StringVar(&a.snapshotDir, "snapshot-dir", "", "Snapshot store directory (overrides config)")
	pf.StringVar(&a.fromSnapshot, "from-snapshot", "", "Load the network from this stored fingerprint instead of building it")
	pf.BoolVar(&a.logJSON, "log-json", false, "Write logs as JSON")

	root.AddCommand(a.pathsCmd(), a.combinedCmd(), a.startersCmd(), a.snapshotCmd())
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.k > 0 {
		cfg.K = a.k
	}
	if a.maxCombos > 0 {
		cfg.MaxCombos = a.maxCombos
	}
	if a.costFunction != "" {
		cfg.CostFunction = a.costFunction
	}
	if a.snapshotDir != "" {
		cfg.SnapshotDir = a.snapshotDir
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	hopts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), hopts)
	if a.logJSON {
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), hopts)
	}
	a.logger = slog.New(h)

	return nil
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// openStore opens the configured snapshot store.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.SnapshotDir == "" {
		return nil, errNoSnapshotDir
	}
	return store.Open(store.Config{Dir: a.cfg.SnapshotDir, SyncWrites: true, Logger: a.logger})
}

// network returns a built network: restored from the store when
// --from-snapshot is set, otherwise built from the entries file.
func (a *app) network(ctx context.Context) (*network.Network, error) {
	if a.fromSnapshot != "" {
		st, err := a.openStore()
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Load(ctx, a.fromSnapshot, network.WithLogger(a.logger), network.WithWorkerCount(a.cfg.Workers))
	}

	// 1) Inputs
	switch {
	case a.entriesPath == "":
		return nil, errNoEntries
	case len(a.precursors) == 0:
		return nil, errNoPrecursors
	case len(a.targets) == 0:
		return nil, errNoTarget
	}
	set, err := chem.LoadEntries(a.entriesPath)
	if err != nil {
		return nil, err
	}
	precursors, err := set.Lookup(a.precursors...)
	if err != nil {
		return nil, fmt.Errorf("rxnpath: precursors: %w", err)
	}
	targets, err := set.Lookup(a.targets...)
	if err != nil {
		return nil, fmt.Errorf("rxnpath: target: %w", err)
	}

	// 2) Network
	var hull chem.HullDistancer
	if set.Hull != nil {
		hull = set.Hull
	}
	n, err := network.New(set.Entries, a.cfg.NetworkOptions(hull, a.logger)...)
	if err != nil {
		return nil, err
	}
	bctx, cancel := withTimeout(ctx, a.cfg.BuildTimeout)
	defer cancel()
	if err = n.Build(bctx, precursors, targets); err != nil {
		return nil, err
	}

	return n, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

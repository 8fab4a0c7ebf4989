package network

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/cost"
)

// SetPrecursors replaces the precursor set without rebuilding. Only the
// Precursors vertex, its edges and (in complex mode) the loopback edges are
// regenerated; reaction edges and weights are untouched.
//
// Errors: ErrGraphNotBuilt, ErrNoPrecursors, ErrEntryNotInNetwork, ctx errors.
func (n *Network) SetPrecursors(ctx context.Context, precursors []chem.Entry) (err error) {
	ctx, span := startSpan(ctx, "SetPrecursors", attribute.Int("network.precursors", len(precursors)))
	defer func() { endSpan(span, err) }()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st == nil {
		return ErrGraphNotBuilt
	}
	prec, err := n.combinationOf(precursors)
	if err != nil {
		return err
	}
	if prec.Equal(n.st.precursors) {
		return nil
	}

	// Work on a copy so a canceled relink leaves the network consistent.
	st := n.st.clone()
	if err = n.linkPrecursors(ctx, st, prec); err != nil {
		return err
	}
	n.st = st
	n.cfg.logger.Debug("precursors set", slog.String("precursors", prec.String()))

	return nil
}

// SetTarget replaces the active target without rebuilding. Setting the
// current target is a no-op.
//
// Errors: ErrGraphNotBuilt, ErrEntryNotInNetwork.
func (n *Network) SetTarget(ctx context.Context, target chem.Entry) (err error) {
	_, span := startSpan(ctx, "SetTarget")
	defer func() { endSpan(span, err) }()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st == nil {
		return ErrGraphNotBuilt
	}
	if err = n.checkEntry(target); err != nil {
		return err
	}
	if n.st.target.Key() == target.Key() {
		return nil
	}
	if err = n.linkTarget(n.st, target); err != nil {
		return err
	}
	n.cfg.logger.Debug("target set", slog.String("target", target.Key()))

	return nil
}

// SetCostFunction switches the cost strategy and reweighs every reaction edge
// from its stored energy. Applying the same strategy twice gives the same
// weights. An unknown name gives weight 0 and is logged.
//
// Errors: ErrGraphNotBuilt.
func (n *Network) SetCostFunction(name cost.Name) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.st == nil {
		return ErrGraphNotBuilt
	}
	if !cost.Valid(name) {
		n.cfg.logger.Warn("unknown cost function, reaction edges will weigh 0",
			slog.String("cost_function", string(name)))
	}
	n.cfg.costFunction = name

	return n.applyWeights(n.st)
}

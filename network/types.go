package network

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/reaction"
)

// Sentinel errors.
var (
	// ErrGraphNotBuilt indicates a query or setter before Build.
	ErrGraphNotBuilt = errors.New("network: graph not built")

	// ErrEntryNotInNetwork indicates an entry outside the network's (filtered) entries.
	ErrEntryNotInNetwork = errors.New("network: entry not in network")

	// ErrNoPrecursors indicates an empty precursor set.
	ErrNoPrecursors = errors.New("network: no precursors")

	// ErrNoTarget indicates an empty target list.
	ErrNoTarget = errors.New("network: no target")
)

// ConfigError reports an invalid network option.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("network: invalid %s: %s", e.Field, e.Reason)
}

// NodeKind is the role of a vertex.
type NodeKind int

// Node kinds.
const (
	PrecursorsNode NodeKind = iota
	ReactantsNode
	ProductsNode
	TargetNode
)

// String returns the kind label used in node keys.
func (k NodeKind) String() string {
	switch k {
	case PrecursorsNode:
		return "precursors"
	case ReactantsNode:
		return "reactants"
	case ProductsNode:
		return "products"
	case TargetNode:
		return "target"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// parseNodeKind is the inverse of NodeKind.String.
func parseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "precursors":
		return PrecursorsNode, nil
	case "reactants":
		return ReactantsNode, nil
	case "products":
		return ProductsNode, nil
	case "target":
		return TargetNode, nil
	default:
		return 0, fmt.Errorf("network: unknown node kind %q", s)
	}
}

// Node is the payload of every vertex.
type Node struct {
	Kind    NodeKind
	Entries *chem.Combination
}

// Key returns "kind/combinationKey", the vertex key in the graph.
func (n Node) Key() string { return nodeKey(n.Kind, n.Entries) }

func nodeKey(k NodeKind, c *chem.Combination) string {
	return k.String() + "/" + c.Key()
}

// EdgeKind is the role of an edge.
type EdgeKind int

// Edge kinds.
const (
	PrecursorEdge EdgeKind = iota
	LoopbackEdge
	TargetEdge
	ReactionEdge
)

// String returns the kind label.
func (k EdgeKind) String() string {
	switch k {
	case PrecursorEdge:
		return "precursor"
	case LoopbackEdge:
		return "loopback"
	case TargetEdge:
		return "target"
	case ReactionEdge:
		return "reaction"
	default:
		return fmt.Sprintf("edge(%d)", int(k))
	}
}

func parseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "precursor":
		return PrecursorEdge, nil
	case "loopback":
		return LoopbackEdge, nil
	case "target":
		return TargetEdge, nil
	case "reaction":
		return ReactionEdge, nil
	default:
		return 0, fmt.Errorf("network: unknown edge kind %q", s)
	}
}

// EdgeData is the payload of every edge. Reaction and EnergyPerAtom are set
// only on reaction edges.
type EdgeData struct {
	Kind          EdgeKind
	Reaction      *reaction.Reaction
	EnergyPerAtom float64
}

var (
	precursorData = &EdgeData{Kind: PrecursorEdge}
	loopbackData  = &EdgeData{Kind: LoopbackEdge}
	targetData    = &EdgeData{Kind: TargetEdge}
)

// Phase identifies a step of Build or a query for progress reporting.
type Phase string

// Phases reported to an Observer.
const (
	PhaseCombinations  Phase = "combinations"
	PhaseNodes         Phase = "nodes"
	PhaseStructural    Phase = "structural_edges"
	PhaseReactionEdges Phase = "reaction_edges"
	PhaseWeights       Phase = "weights"
	PhasePathfinding   Phase = "pathfinding"
)

// Progress is one observer notification. Done/Total count the work units of
// the phase; Total is 0 when unknown.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Observer receives progress notifications. It is called synchronously from
// the goroutine running the operation and must not call back into the Network.
type Observer func(Progress)

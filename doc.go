// Package rxnpath finds low-cost solid-state reaction pathways in a
// chemical reaction network.
//
// Given material entries with formation energies, rxnpath enumerates every
// combination of up to M phases, balances each pair of combinations that
// share a chemical system, and weighs the resulting reactions with a
// thermodynamic cost. Pathways from a precursor set to a target are the
// k shortest simple paths through that graph.
//
// What is inside:
//
//	chem/        compositions, formula parsing, entries, combinations, entry filters
//	combo/       size-bounded subset enumeration
//	matrix/      dense linear algebra: pseudo-inverse, least squares, null space
//	reaction/    balanced reactions and the null-space balancer
//	cost/        softplus, rectified, arrhenius, bipartite, enthalpies_positive
//	core/        directed weighted graph with integer handles and a key index
//	bfs/         reachability over core graphs
//	dijkstra/    single-source shortest paths with edge and vertex exclusions
//	yen/         k shortest loopless paths
//	network/     the reaction network: build, relink, search, snapshot
//	pathway/     pathways, combined pathways and the path balancer
//	store/       BadgerDB snapshot store keyed by BLAKE3 fingerprints
//	config/      YAML configuration
//	cmd/rxnpath  command-line interface
//
// Graph shape, for a two-phase system:
//
//	Precursors ──► Reactants{A,B} ──rxn──► Products{AB} ──► Target
//	                    ▲                       │
//	                    └──────── loopback ─────┘
//
//	go get github.com/katalvlaran/rxnpath
package rxnpath

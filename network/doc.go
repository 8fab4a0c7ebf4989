// SPDX-License-Identifier: MIT

// Package network builds and queries a reaction network: a weighted directed
// graph whose vertices are combinations of phases and whose edges are balanced
// reactions between them.
//
// Graph shape:
//
//	Precursors ──0──▶ Reactants(c)   for every c ⊆ precursors
//	Reactants(r) ─w─▶ Products(p)    for every balanced r → p
//	Products(p) ──0──▶ Reactants(c)  loopback (see below)
//	Products(p) ──0──▶ Target        for every p containing the target
//
// Loopback edges let a path continue from the products of one reaction. In
// simple mode every Products(p) links back to Reactants(p). In complex mode it
// links to every combination (up to the size limit) of p ∪ precursors, which
// is why replacing the precursors regenerates the loopbacks.
//
// Build cost is dominated by the pairwise reaction scan, O(C²) in the number
// of combinations C = Σ_{k≤M} C(N, k). The scan runs on a bounded worker pool
// and a single writer inserts the resulting edges in a fixed order, so the
// graph is identical for any worker count.
//
// Weights come from a named cost strategy (package cost). Strategies that need
// a global shift are folded over all reaction edges after the scan, and again
// whenever the strategy is swapped.
//
// A Network is safe for concurrent use. Queries share a read lock; Build and
// the setters take the write lock.
package network

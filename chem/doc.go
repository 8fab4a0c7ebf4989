// Package chem holds the small chemistry vocabulary the reaction network is
// built from: compositions parsed from formulas, the Entry contract (a phase
// with a formation energy), deduplicated Combinations of entries, and entry
// filtering by energy above the convex hull.
//
// Entries are compared by Key, which is the reduced formula (plus a polymorph
// tag when one is set). Everything in this package is immutable once built
// and safe to share across goroutines.
//
// Thermodynamic modelling is out of scope: energies and hull distances are
// supplied by the caller, either programmatically or through LoadEntries.
package chem

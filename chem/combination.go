package chem

import (
	"sort"
	"strings"
)

// keySep joins entry keys into a combination key. It cannot appear in a
// reduced formula or a polymorph tag produced by ParseFormula.
const keySep = "|"

// Combination is an unordered, deduplicated set of entries.
//
// Entries are stored sorted by key, so Key and iteration order are canonical.
// A Combination is immutable after construction and is shared by pointer.
type Combination struct {
	entries  []Entry
	key      string
	elements []string
}

// NewCombination builds a combination from entries, dropping duplicate keys.
func NewCombination(entries ...Entry) *Combination {
	seen := make(map[string]struct{}, len(entries))
	uniq := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		uniq = append(uniq, e)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Key() < uniq[j].Key() })

	keys := make([]string, len(uniq))
	comps := make([]Composition, len(uniq))
	for i, e := range uniq {
		keys[i] = e.Key()
		comps[i] = e.Composition()
	}

	return &Combination{
		entries:  uniq,
		key:      strings.Join(keys, keySep),
		elements: ElementSet(comps...),
	}
}

// Entries returns the entries sorted by key. The slice must not be modified.
func (c *Combination) Entries() []Entry { return c.entries }

// Len returns the number of entries.
func (c *Combination) Len() int { return len(c.entries) }

// Key returns the canonical identity of the set.
func (c *Combination) Key() string { return c.key }

// Elements returns the sorted element set. The slice must not be modified.
func (c *Combination) Elements() []string { return c.elements }

// ElementKey returns the element set as a chemsys string.
func (c *Combination) ElementKey() string { return Chemsys(c.elements) }

// Contains reports whether an entry with e's key is a member.
func (c *Combination) Contains(e Entry) bool {
	k := e.Key()
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Key() >= k })
	return i < len(c.entries) && c.entries[i].Key() == k
}

// SubsetOf reports whether every member of c is in o.
func (c *Combination) SubsetOf(o *Combination) bool {
	if c.Len() > o.Len() {
		return false
	}
	for _, e := range c.entries {
		if !o.Contains(e) {
			return false
		}
	}
	return true
}

// Equal reports set equality.
func (c *Combination) Equal(o *Combination) bool { return c.key == o.key }

// SameElements reports whether both combinations span the same element set.
func (c *Combination) SameElements(o *Combination) bool {
	if len(c.elements) != len(o.elements) {
		return false
	}
	for i := range c.elements {
		if c.elements[i] != o.elements[i] {
			return false
		}
	}
	return true
}

// Union returns the deduplicated union of c and o.
func (c *Combination) Union(o *Combination) *Combination {
	all := make([]Entry, 0, c.Len()+o.Len())
	all = append(all, c.entries...)
	all = append(all, o.entries...)
	return NewCombination(all...)
}

// String renders "BaO + TiO2".
func (c *Combination) String() string {
	parts := make([]string, len(c.entries))
	for i, e := range c.entries {
		parts[i] = e.Composition().ReducedFormula()
	}
	return strings.Join(parts, " + ")
}

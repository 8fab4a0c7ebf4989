package chem

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// EntryRecord is the on-disk form of an entry. YAML and JSON files share it,
// since JSON is valid YAML.
type EntryRecord struct {
	Formula    string   `yaml:"formula" json:"formula"`
	Energy     float64  `yaml:"energy" json:"energy"`
	EAboveHull *float64 `yaml:"e_above_hull,omitempty" json:"e_above_hull,omitempty"`
	Tag        string   `yaml:"tag,omitempty" json:"tag,omitempty"`
}

// EntrySet is the result of loading an entries file.
type EntrySet struct {
	Entries []Entry
	// Hull holds e_above_hull for records that declared it. It is nil when no
	// record did, which FilterEntries treats as "everything is stable".
	Hull StaticHull
}

// ReadEntries decodes a list of EntryRecord from r.
func ReadEntries(r io.Reader) (*EntrySet, error) {
	var records []EntryRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return &EntrySet{}, nil
		}
		return nil, fmt.Errorf("chem: decode entries: %w", err)
	}

	set := &EntrySet{Entries: make([]Entry, 0, len(records))}
	for i, rec := range records {
		e, err := NewEntry(rec.Formula, rec.Energy, rec.Tag)
		if err != nil {
			return nil, fmt.Errorf("chem: entry %d: %w", i, err)
		}
		set.Entries = append(set.Entries, e)
		if rec.EAboveHull != nil {
			if set.Hull == nil {
				set.Hull = make(StaticHull)
			}
			set.Hull[e.Key()] = *rec.EAboveHull
		}
	}

	return set, nil
}

// LoadEntries reads an entries file (YAML or JSON).
func LoadEntries(path string) (*EntrySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chem: open entries: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// Lookup resolves formulas against loaded entries by key or reduced formula.
func (s *EntrySet) Lookup(formulas ...string) ([]Entry, error) {
	byKey := make(map[string]Entry, len(s.Entries))
	for _, e := range s.Entries {
		byKey[e.Key()] = e
	}
	out := make([]Entry, 0, len(formulas))
	for _, f := range formulas {
		if e, ok := byKey[f]; ok {
			out = append(out, e)
			continue
		}
		comp, err := ParseFormula(f)
		if err != nil {
			return nil, err
		}
		e, ok := byKey[comp.ReducedFormula()]
		if !ok {
			return nil, fmt.Errorf("chem: no entry for %q", f)
		}
		out = append(out, e)
	}

	return out, nil
}

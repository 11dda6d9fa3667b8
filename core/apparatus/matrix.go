package apparatus

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/Apparatus/core/siglum"
)

// Matrix is the attestation matrix over a collation: for every
// fully-qualified witness key, the sequence of reading numbers it supports,
// one per variation unit, aligned with the collation's unit order. Positions
// with no attestation hold the lacuna sentinel.
type Matrix struct {
	// Keys lists the fully-qualified witness keys in canonical order:
	// witness-list order of the base, then suffix precedence within a base.
	Keys []string
	// Sequences maps each key to its reading-number sequence.
	Sequences map[string][]string
	// Bases maps each key back to its base witness siglum.
	Bases map[string]string
}

// subwitness is one registered suffixed key of a base witness.
type subwitness struct {
	key   string
	stack []siglum.Suffix
}

// stackIsProperPrefix reports whether a is a proper element-wise prefix of b.
// Prefix subsumption is decided on decomposed suffix stacks, not on raw
// substring matching, so unrelated suffixes that happen to share characters
// never alias each other.
func stackIsProperPrefix(a, b []siglum.Suffix) bool {
	if len(a) >= len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}

// stackIsPrefix reports whether a is an element-wise prefix of b, proper or
// not.
func stackIsPrefix(a, b []siglum.Suffix) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}

// stackSortKey maps a suffix stack to its precedence indices in the table.
func stackSortKey(table *siglum.Table, stack []siglum.Suffix) []int {
	key := make([]int, len(stack))
	for i, s := range stack {
		key[i] = table.Index(s.Text)
	}
	return key
}

// Attestations builds the attestation matrix for the collation. Citations
// that cannot be resolved against the witness list are reported as findings
// and skipped; they never corrupt the matrix.
func (c *Collation) Attestations(table *siglum.Table) (*Matrix, []Finding) {
	var findings []Finding

	// First pass: register the suffixed witness keys cited anywhere in the
	// collation, one prefix-free stack set per base witness. A key whose
	// stack is a proper prefix of an already-registered key carries no
	// extra information and is subsumed by it; conversely a new, longer
	// key evicts any registered proper prefix of itself.
	registered := make(map[string][]subwitness, len(c.Witnesses))
	for _, unit := range c.Units {
		for _, att := range unit.Attestors() {
			for _, wit := range att.Citations() {
				d := table.Resolve(wit, c.WitnessIndex)
				if !d.Resolved {
					findings = append(findings, Finding{
						UnitID:   unit.ID,
						Category: "unresolved-citation",
						Message:  fmt.Sprintf("siglum %s has no base witness in the witness list", wit),
					})
					continue
				}
				if len(d.Suffixes) == 0 {
					continue
				}
				subs := registered[d.Base]
				subsumed := false
				for _, sub := range subs {
					if d.String() == sub.key || stackIsProperPrefix(d.Suffixes, sub.stack) {
						subsumed = true
						break
					}
				}
				if subsumed {
					continue
				}
				kept := subs[:0]
				for _, sub := range subs {
					if !stackIsProperPrefix(sub.stack, d.Suffixes) {
						kept = append(kept, sub)
					}
				}
				registered[d.Base] = append(kept, subwitness{key: d.String(), stack: d.Suffixes})
			}
		}
	}

	// Lay out the matrix rows: every registered subwitness key of a base,
	// or the base itself when it has none, initialized to the sentinel.
	m := &Matrix{
		Sequences: make(map[string][]string),
		Bases:     make(map[string]string),
	}
	for _, base := range c.Witnesses {
		subs := registered[base]
		if len(subs) == 0 {
			m.addRow(base, base, len(c.Units))
			continue
		}
		sort.SliceStable(subs, func(i, j int) bool {
			return CompareKeys(stackSortKey(table, subs[i].stack), stackSortKey(table, subs[j].stack)) < 0
		})
		for _, sub := range subs {
			m.addRow(sub.key, base, len(c.Units))
		}
	}

	// Second pass: assign reading numbers unit by unit. Exact key matches
	// are applied first; a citation of a bare base (or of a stack that was
	// subsumed by a longer key) then applies to every extension of it that
	// was not separately cited in the same unit.
	for i, unit := range c.Units {
		direct := make(map[string]string)
		type partial struct {
			base  string
			stack []siglum.Suffix
			rdg   string
		}
		var partials []partial
		for _, att := range unit.Attestors() {
			for _, wit := range att.Citations() {
				if _, ok := m.Sequences[wit]; ok {
					direct[wit] = att.Number()
					continue
				}
				d := table.Resolve(wit, c.WitnessIndex)
				if !d.Resolved {
					continue // already reported in the first pass
				}
				partials = append(partials, partial{base: d.Base, stack: d.Suffixes, rdg: att.Number()})
			}
		}
		for key, rdg := range direct {
			m.Sequences[key][i] = rdg
		}
		for _, p := range partials {
			for _, sub := range registered[p.base] {
				if _, cited := direct[sub.key]; cited {
					continue
				}
				if stackIsPrefix(p.stack, sub.stack) {
					m.Sequences[sub.key][i] = p.rdg
				}
			}
		}
	}

	return m, findings
}

func (m *Matrix) addRow(key, base string, units int) {
	if _, ok := m.Sequences[key]; ok {
		return
	}
	seq := make([]string, units)
	for i := range seq {
		seq[i] = LacunaSentinel
	}
	m.Keys = append(m.Keys, key)
	m.Sequences[key] = seq
	m.Bases[key] = base
}

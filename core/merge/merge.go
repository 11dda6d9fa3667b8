// Package merge combines multiple variation units into a single synthetic
// unit whose readings group witnesses by identical attestation across all
// source units.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/errors"
	"github.com/FocuswithJustin/Apparatus/core/siglum"
)

// Combine merges the variation units of the given collations into one unit.
// All collations must share the same canonical witness list; otherwise the
// merge aborts with a ConfigError naming the mismatched lists. The output is
// deterministic: given the same unit order and witness list, the merged unit
// is reproduced exactly.
func Combine(table *siglum.Table, colls ...*apparatus.Collation) (*apparatus.Unit, []apparatus.Finding, error) {
	if len(colls) == 0 {
		return nil, nil, errors.NewConfig("merge", "no collations supplied")
	}
	combined := colls[0]
	if len(colls) > 1 {
		var units []*apparatus.Unit
		for i, c := range colls {
			if i > 0 && !sameWitnessList(colls[0].Witnesses, c.Witnesses) {
				return nil, nil, errors.NewConfig("merge", fmt.Sprintf(
					"collations disagree on the canonical witness list: {%s} vs {%s}",
					strings.Join(colls[0].Witnesses, ", "), strings.Join(c.Witnesses, ", ")))
			}
			units = append(units, c.Units...)
		}
		combined = apparatus.NewCollation(colls[0].Witnesses, units)
	}
	if len(combined.Units) == 0 {
		return nil, nil, errors.NewConfig("merge", "no variation units supplied")
	}

	matrix, findings := combined.Attestations(table)

	// Group witness keys by identical reading sequence. Iterating matrix
	// keys in canonical order makes each group's witness list come out
	// already sorted by base index and suffix precedence.
	type group struct {
		seq  []string
		wits []string
	}
	groupIndex := make(map[string]int)
	var groups []*group
	for _, key := range matrix.Keys {
		seq := matrix.Sequences[key]
		joined := strings.Join(seq, ",")
		gi, ok := groupIndex[joined]
		if !ok {
			gi = len(groups)
			groupIndex[joined] = gi
			groups = append(groups, &group{seq: seq})
		}
		groups[gi].wits = append(groups[gi].wits, key)
	}

	// Sort groups by the per-unit appearance order of their reading ids:
	// editorial order, not string order.
	orders := make([]map[string]int, len(combined.Units))
	for i, unit := range combined.Units {
		orders[i] = unit.ReadingOrder()
	}
	seqKey := func(g *group) []int {
		key := make([]int, len(g.seq))
		for j, rdg := range g.seq {
			key[j] = orders[j][rdg]
		}
		return key
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return apparatus.CompareKeys(seqKey(groups[i]), seqKey(groups[j])) < 0
	})

	// Index the source attestors, synthesizing a lacuna placeholder for any
	// unit that has none so every group has a defined contributor there.
	sources := make([]map[string]apparatus.Attestor, len(combined.Units))
	for i, unit := range combined.Units {
		sources[i] = make(map[string]apparatus.Attestor)
		for _, att := range unit.Attestors() {
			if _, ok := sources[i][att.Number()]; !ok {
				sources[i][att.Number()] = att
			}
		}
		if _, ok := sources[i][apparatus.LacunaSentinel]; !ok {
			sources[i][apparatus.LacunaSentinel] = &apparatus.WitDetail{
				N:    apparatus.LacunaSentinel,
				Type: "lac",
			}
		}
	}

	merged := &apparatus.Unit{}
	for _, g := range groups {
		merged.Children = append(merged.Children, mergeGroup(g.seq, g.wits, sources))
	}
	return merged, findings, nil
}

// mergeGroup synthesizes one merged reading: its number is the joined
// reading sequence, its content one seg per source unit in unit order, and
// its attributes the first-occurrence union of the contributors' attributes.
func mergeGroup(seq, wits []string, sources []map[string]apparatus.Attestor) *apparatus.Reading {
	merged := &apparatus.Reading{
		N:    strings.Join(seq, ","),
		Wits: wits,
	}
	var types, causes, anas, langs []string
	for i, rdg := range seq {
		att := sources[i][rdg]
		seg := &apparatus.Element{Tag: "seg"}
		switch src := att.(type) {
		case *apparatus.Reading:
			types = appendUnique(types, src.Type)
			causes = appendUnique(causes, src.Cause)
			anas = appendUnique(anas, src.Ana)
			langs = appendUnique(langs, src.Lang)
			seg.Text = src.Text
			for _, el := range src.Content {
				seg.Children = append(seg.Children, el.Clone())
			}
		case *apparatus.WitDetail:
			types = appendUnique(types, src.Type)
			seg.Text = src.Text
			for _, el := range src.Content {
				seg.Children = append(seg.Children, el.Clone())
			}
		}
		merged.Content = append(merged.Content, seg)
	}
	merged.Type = strings.Join(types, " ")
	merged.Cause = strings.Join(causes, " ")
	merged.Ana = strings.Join(anas, " ")
	merged.Lang = strings.Join(langs, " ")
	return merged
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func sameWitnessList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

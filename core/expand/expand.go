// Package expand converts negative apparatuses to positive ones: the
// reserved "rell" citation is replaced by the witnesses not otherwise cited
// in the unit, and every citation list is re-sorted into canonical order.
package expand

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/siglum"
)

// Positive rewrites every variation unit of the collation in place. A
// citation that fails to resolve is reported as a finding and keeps its
// pre-sort position; a local failure never aborts the rest of the document.
func Positive(c *apparatus.Collation, table *siglum.Table) []apparatus.Finding {
	var findings []apparatus.Finding
	for _, unit := range c.Units {
		findings = append(findings, expandUnit(unit, c, table)...)
	}
	return findings
}

// ExpandUnit rewrites a single unit in place and returns its findings.
func ExpandUnit(u *apparatus.Unit, c *apparatus.Collation, table *siglum.Table) []apparatus.Finding {
	return expandUnit(u, c, table)
}

func expandUnit(u *apparatus.Unit, c *apparatus.Collation, table *siglum.Table) []apparatus.Finding {
	var findings []apparatus.Finding

	// Collect the base witnesses cited, with or without suffixes, under any
	// reading or witness detail of the unit.
	cited := make(map[string]bool)
	for _, att := range u.Attestors() {
		for _, wit := range att.Citations() {
			if wit == apparatus.RellToken {
				continue
			}
			if base, ok := siglum.BaseOf(wit, c.WitnessIndex); ok {
				cited[base] = true
			}
		}
	}

	// The uncited remainder, in canonical witness-list order.
	var uncited []string
	for _, wit := range c.Witnesses {
		if !cited[wit] {
			uncited = append(uncited, wit)
		}
	}

	for _, att := range u.Attestors() {
		wits := substituteRell(att.Citations(), uncited)
		wits, unresolved := sortCitations(wits, c, table)
		for _, wit := range unresolved {
			findings = append(findings, apparatus.Finding{
				UnitID:   u.ID,
				Category: "unresolved-citation",
				Message:  fmt.Sprintf("reading %s: cannot sort siglum %s", att.Number(), wit),
			})
		}
		switch a := att.(type) {
		case *apparatus.Reading:
			a.Wits = wits
		case *apparatus.WitDetail:
			a.Wits = wits
		}
	}
	return findings
}

// substituteRell splices the uncited witnesses in place of the rell token.
func substituteRell(wits, uncited []string) []string {
	out := make([]string, 0, len(wits))
	for _, wit := range wits {
		if wit == apparatus.RellToken {
			out = append(out, uncited...)
			continue
		}
		out = append(out, wit)
	}
	return out
}

// sortCitations orders citations by (base witness-list index, then the
// precedence index of each suffix in stack order). Citations that fail to
// resolve keep their original positions; the rest sort around them.
func sortCitations(wits []string, c *apparatus.Collation, table *siglum.Table) (sorted, unresolved []string) {
	type entry struct {
		wit string
		key []int
	}
	var resolved []entry
	unresolvedAt := make(map[int]string)
	for i, wit := range wits {
		d := table.Resolve(wit, c.WitnessIndex)
		if !d.Resolved {
			unresolvedAt[i] = wit
			unresolved = append(unresolved, wit)
			continue
		}
		key := []int{c.WitnessIndex[d.Base]}
		for _, s := range d.Suffixes {
			key = append(key, table.Index(s.Text))
		}
		resolved = append(resolved, entry{wit: wit, key: key})
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return apparatus.CompareKeys(resolved[i].key, resolved[j].key) < 0
	})

	sorted = make([]string, len(wits))
	next := 0
	for i := range wits {
		if wit, ok := unresolvedAt[i]; ok {
			sorted[i] = wit
			continue
		}
		sorted[i] = resolved[next].wit
		next++
	}
	return sorted, unresolved
}

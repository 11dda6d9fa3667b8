// Package validate runs read-only consistency checks over variation units:
// duplicate reading texts, witnesses counted under more than one reading,
// suffixed citations without their expected counterparts, and ambiguous
// witness details whose number, target, and certainty lists disagree.
//
// Checks never mutate the document. Their results are findings, collected
// per unit; processing always continues over the rest of the collation.
package validate

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/siglum"
)

// Collation runs every check over every unit and returns the findings in
// unit order.
func Collation(c *apparatus.Collation, table *siglum.Table) []apparatus.Finding {
	var findings []apparatus.Finding
	for _, u := range c.Units {
		findings = append(findings, Unit(u, table)...)
	}
	return findings
}

// Unit runs every check over one unit.
func Unit(u *apparatus.Unit, table *siglum.Table) []apparatus.Finding {
	var findings []apparatus.Finding
	findings = append(findings, DuplicateReadings(u)...)
	findings = append(findings, AmbiguousAttestations(u)...)
	findings = append(findings, UnmatchedWitnessPairs(u, table)...)
	findings = append(findings, AmbiguousDetails(u)...)
	return findings
}

// DuplicateReadings reports groups of readings in the unit whose serialized
// content is identical. Overlap and lacuna readings are ignored.
func DuplicateReadings(u *apparatus.Unit) []apparatus.Finding {
	var findings []apparatus.Finding
	byText := make(map[string][]string)
	var order []string
	for _, r := range u.Readings() {
		if r.Type == "overlap" || r.Type == "lac" {
			continue
		}
		text := ReadingText(r)
		if _, ok := byText[text]; !ok {
			order = append(order, text)
		}
		byText[text] = append(byText[text], r.N)
	}
	for _, text := range order {
		if ns := byText[text]; len(ns) > 1 {
			findings = append(findings, apparatus.Finding{
				UnitID:   u.ID,
				Category: "duplicate-readings",
				Message:  fmt.Sprintf("reading %q occurs in readings %s", text, strings.Join(ns, ", ")),
			})
		}
	}
	return findings
}

// AmbiguousAttestations reports citations that appear, as literal strings,
// under more than one reading of the unit. No suffix resolution is applied:
// a witness counted twice is a data error regardless of layers.
func AmbiguousAttestations(u *apparatus.Unit) []apparatus.Finding {
	var findings []apparatus.Finding
	byWit := make(map[string][]string)
	var order []string
	for _, r := range u.Readings() {
		for _, wit := range r.Wits {
			if _, ok := byWit[wit]; !ok {
				order = append(order, wit)
			}
			byWit[wit] = append(byWit[wit], r.N)
		}
	}
	for _, wit := range order {
		if ns := byWit[wit]; len(ns) > 1 {
			findings = append(findings, apparatus.Finding{
				UnitID:   u.ID,
				Category: "ambiguous-attestation",
				Message:  fmt.Sprintf("witness %s supports readings %s", wit, strings.Join(ns, ", ")),
			})
		}
	}
	return findings
}

// UnmatchedWitnessPairs verifies that every suffixed citation of a base
// witness has a compatible-role counterpart at the same stack position among
// the base's other citations in the unit: a first hand implies a corrector,
// a main text implies an alternate text, and a multiple attestation implies
// another multiple attestation. A base witness cited bare alongside suffixed
// citations of itself is reported separately, since which layer is meant is
// ambiguous.
func UnmatchedWitnessPairs(u *apparatus.Unit, table *siglum.Table) []apparatus.Finding {
	var findings []apparatus.Finding

	firstReading := make(map[string]string)
	stacksByBase := make(map[string][][]siglum.Suffix)
	var baseOrder []string
	for _, r := range u.Readings() {
		for _, wit := range r.Wits {
			if _, ok := firstReading[wit]; !ok {
				firstReading[wit] = r.N
			}
			base, stack := table.Decompose(wit)
			if _, ok := stacksByBase[base]; !ok {
				baseOrder = append(baseOrder, base)
			}
			stacksByBase[base] = append(stacksByBase[base], stack)
		}
	}

	for _, base := range baseOrder {
		stacks := stacksByBase[base]
		if len(stacks) == 1 {
			if len(stacks[0]) != 0 {
				subwit := base + joinStack(stacks[0])
				findings = append(findings, apparatus.Finding{
					UnitID:   u.ID,
					Category: "unmatched-pair",
					Message: fmt.Sprintf("subwitness %s (reading %s) occurs without any corresponding subwitness",
						subwit, firstReading[subwit]),
				})
			}
			continue
		}
		for _, stack := range stacks {
			if len(stack) == 0 {
				findings = append(findings, apparatus.Finding{
					UnitID:   u.ID,
					Category: "unmatched-pair",
					Message: fmt.Sprintf("base witness %s (reading %s) is cited alongside subwitness(es) %s",
						base, firstReading[base], strings.Join(siblingSubwits(base, stacks), ", ")),
				})
				continue
			}
			subwit := base + joinStack(stack)
			for i, suffix := range stack {
				if suffixMatched(suffix, i, stacks) {
					continue
				}
				findings = append(findings, apparatus.Finding{
					UnitID:   u.ID,
					Category: "unmatched-pair",
					Message: fmt.Sprintf("found %s %s with reading %s, but no %s",
						suffix.Role, subwit, firstReading[subwit], suffix.Role.Counterpart()),
				})
			}
		}
	}
	return findings
}

// suffixMatched reports whether any sibling stack carries a compatible-role
// suffix at the same position.
func suffixMatched(suffix siglum.Suffix, pos int, stacks [][]siglum.Suffix) bool {
	for _, other := range stacks {
		if pos >= len(other) {
			continue
		}
		if other[pos].Text == suffix.Text {
			continue
		}
		if siglum.Compatible(suffix.Role, other[pos].Role) {
			return true
		}
	}
	return false
}

func joinStack(stack []siglum.Suffix) string {
	var sb strings.Builder
	for _, s := range stack {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func siblingSubwits(base string, stacks [][]siglum.Suffix) []string {
	var subwits []string
	for _, stack := range stacks {
		if len(stack) == 0 {
			continue
		}
		subwits = append(subwits, base+joinStack(stack))
	}
	return subwits
}

// AmbiguousDetails verifies that each ambiguous witness detail names the
// same reading set three times over: in its number (the "W1/2" form), in its
// target list, and in its certainty elements when it has any.
func AmbiguousDetails(u *apparatus.Unit) []apparatus.Finding {
	var findings []apparatus.Finding
	for _, d := range u.WitDetails() {
		if d.Type != "ambiguous" {
			continue
		}
		if d.N == "" {
			findings = append(findings, apparatus.Finding{
				UnitID:   u.ID,
				Category: "ambiguous-detail",
				Message:  "an ambiguous witness detail is lacking a number",
			})
			continue
		}
		fromN := targetsFromNumber(d.N)

		targets := make([]string, len(d.Targets))
		for i, t := range d.Targets {
			targets[i] = apparatus.RefNumber(t)
		}

		certainty := targets
		if len(d.Certainties) > 0 {
			certainty = nil
			for _, c := range d.Certainties {
				if c.Target == "" {
					continue
				}
				certainty = append(certainty, apparatus.RefNumber(c.Target))
			}
		}

		if !equalStrings(fromN, targets) {
			findings = append(findings, apparatus.Finding{
				UnitID:   u.ID,
				Category: "ambiguous-detail",
				Message: fmt.Sprintf("ambiguous reading %s has target=%q",
					d.N, strings.Join(targets, " ")),
			})
		} else if !equalStrings(fromN, certainty) {
			findings = append(findings, apparatus.Finding{
				UnitID:   u.ID,
				Category: "ambiguous-detail",
				Message: fmt.Sprintf("ambiguous reading %s has certainty elements with targets %s",
					d.N, strings.Join(certainty, " ")),
			})
		}
	}
	return findings
}

// targetsFromNumber extracts the target reading numbers encoded in an
// ambiguous detail's number: "W1/2-2" names readings 1 and 2.
func targetsFromNumber(n string) []string {
	n = strings.TrimPrefix(n, "W")
	if i := strings.Index(n, "-"); i >= 0 {
		n = n[:i]
	}
	return strings.Split(n, "/")
}

func equalStrings(a, b []string) bool {
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

// Package reformat rewrites readings typed "ambiguous" into witness details,
// deriving their target list from the readings encoded in their number.
package reformat

import (
	"strings"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
)

// Ambiguous rewrites every ambiguous reading of the collation in place.
// Returns the number of readings converted.
func Ambiguous(c *apparatus.Collation) int {
	converted := 0
	for _, u := range c.Units {
		converted += AmbiguousUnit(u)
	}
	return converted
}

// AmbiguousUnit converts the ambiguous readings of one unit into witness
// details with explicit targets.
func AmbiguousUnit(u *apparatus.Unit) int {
	converted := 0
	for i, child := range u.Children {
		r, ok := child.(*apparatus.Reading)
		if !ok || r.Type != "ambiguous" {
			continue
		}
		u.Children[i] = &apparatus.WitDetail{
			ID:      r.ID,
			N:       r.N,
			Type:    "ambiguous",
			Wits:    r.Wits,
			Targets: targetsFromNumber(r.N),
			Text:    r.Text,
			Content: r.Content,
		}
		converted++
	}
	return converted
}

// targetsFromNumber reads the target list out of an ambiguous number:
// "W1/2-2" names readings 1 and 2.
func targetsFromNumber(n string) []string {
	n = strings.TrimPrefix(n, "W")
	if i := strings.Index(n, "-"); i >= 0 {
		n = n[:i]
	}
	return strings.Split(n, "/")
}

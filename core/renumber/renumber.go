// Package renumber relabels the readings of a variation unit according to a
// caller-supplied order and restores the unit's canonical child order.
//
// Renumbering is all-or-nothing: the supplied order must name exactly the
// unit's current substantive reading numbers, since a partial or excess
// mapping would leave dangling cross-references in ambiguity targets,
// certainty elements, and relation statements.
package renumber

import (
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/errors"
)

// unparsable reading references sort after everything numeric.
const refKeyMax = 1 << 30

// Transpose renumbers the unit in place: the reading currently numbered
// order[i] becomes reading i+1. Every embedded reference to a reading number
// is rewritten through the same map, list-valued references are re-sorted
// ascending, and the unit's children are restored to canonical order.
func Transpose(u *apparatus.Unit, order []string) error {
	current := u.SubstantiveNumbers()
	supplied := append([]string(nil), order...)
	sort.Strings(supplied)
	if !equalStrings(current, supplied) {
		return &errors.StructuralError{
			UnitID:  u.ID,
			Message: "the specified reading sequence does not match the unit's substantive readings",
			Want:    current,
			Got:     supplied,
		}
	}

	mapping := make(map[string]string, len(order))
	for i, n := range order {
		mapping[n] = strconv.Itoa(i + 1)
	}

	for _, child := range u.Children {
		switch c := child.(type) {
		case *apparatus.Reading:
			renumberReading(c, mapping)
		case *apparatus.WitDetail:
			if c.Type == "ambiguous" {
				renumberWitDetail(c, mapping)
			}
		case *apparatus.Note:
			for _, list := range c.Lists {
				renumberListRelation(list, mapping)
			}
		}
	}

	SortChildren(u)
	return nil
}

// renumberReading rewrites the leading component of the reading number and
// keeps any xml:id in sync with it.
func renumberReading(r *apparatus.Reading, mapping map[string]string) {
	parts := strings.Split(r.N, "-")
	if nn, ok := mapping[parts[0]]; ok {
		parts[0] = nn
	}
	r.N = strings.Join(parts, "-")
	r.ID = syncID(r.ID, r.N)
}

// renumberWitDetail rewrites the targets encoded in the detail's number, its
// target list, and its certainty elements, re-sorting each after remapping.
func renumberWitDetail(d *apparatus.WitDetail, mapping map[string]string) {
	parts := strings.Split(d.N, "-")
	targets := strings.Split(strings.TrimPrefix(parts[0], "W"), "/")
	for i, t := range targets {
		if nn, ok := mapping[t]; ok {
			targets[i] = nn
		}
	}
	sortRefs(targets)
	parts[0] = "W" + strings.Join(targets, "/")
	d.N = strings.Join(parts, "-")
	d.ID = syncID(d.ID, d.N)

	for i, t := range d.Targets {
		d.Targets[i] = remapRef(t, mapping)
	}
	sortRefs(d.Targets)

	for _, c := range d.Certainties {
		c.Target = remapRef(c.Target, mapping)
	}
	sort.SliceStable(d.Certainties, func(i, j int) bool {
		return refKey(d.Certainties[i].Target) < refKey(d.Certainties[j].Target)
	})
}

// renumberListRelation rewrites the relations' active and passive reference
// lists, then restores the list's canonical relation order.
func renumberListRelation(l *apparatus.ListRelation, mapping map[string]string) {
	for _, rel := range l.Relations {
		for i, t := range rel.Active {
			rel.Active[i] = remapRef(t, mapping)
		}
		sortRefs(rel.Active)
		for i, t := range rel.Passive {
			rel.Passive[i] = remapRef(t, mapping)
		}
		sortRefs(rel.Passive)
	}
	sort.SliceStable(l.Relations, func(i, j int) bool {
		return apparatus.CompareKeys(relationKey(l.Relations[i]), relationKey(l.Relations[j])) < 0
	})
}

// remapRef rewrites one reading reference through the mapping, preserving
// its form: a bare number maps directly, an xml:id reference keeps its
// prefix and has only the part after the final "R" replaced.
func remapRef(ref string, mapping map[string]string) string {
	if strings.HasPrefix(ref, "#") {
		if i := strings.LastIndex(ref, "R"); i >= 0 {
			if nn, ok := mapping[ref[i+1:]]; ok {
				return ref[:i+1] + nn
			}
		}
		return ref
	}
	if nn, ok := mapping[ref]; ok {
		return nn
	}
	return ref
}

// syncID replaces the reading-number tail of an xml:id with the new number.
func syncID(id, n string) string {
	if id == "" {
		return id
	}
	if i := strings.LastIndex(id, "R"); i >= 0 {
		return id[:i+1] + n
	}
	return id
}

// refKey is the numeric sort key of a reading reference.
func refKey(ref string) int {
	n := apparatus.RefNumber(ref)
	if i := strings.Index(n, "-"); i >= 0 {
		n = n[:i]
	}
	v, err := strconv.Atoi(n)
	if err != nil {
		return refKeyMax
	}
	return v
}

func sortRefs(refs []string) {
	sort.SliceStable(refs, func(i, j int) bool {
		return refKey(refs[i]) < refKey(refs[j])
	})
}

// relationKey orders relations by their active then passive reference sets.
// Byzantine-assimilation relations are conventionally placed last.
func relationKey(rel *apparatus.Relation) []int {
	if rel.Ana == "#Byz" {
		return []int{refKeyMax}
	}
	var key []int
	for _, t := range rel.Active {
		key = append(key, refKey(t))
	}
	// passive keys sort after any active extension
	key = append(key, -1)
	for _, t := range rel.Passive {
		key = append(key, refKey(t))
	}
	return key
}

// SortChildren restores the canonical order of a unit's children: lemma
// first, then readings by the numeric components of their numbers, then
// witness details (ambiguous before overlap before lacuna, ambiguous ordered
// by their sorted targets), then notes. A comment is not itself sortable; it
// inherits the key of its immediately preceding sibling, or a synthetic
// first key when it opens the unit, so it stays attached through the sort.
func SortChildren(u *apparatus.Unit) {
	type keyed struct {
		child apparatus.Child
		key   []int
	}
	keys := make([]keyed, len(u.Children))
	lastKey := []int{-1}
	for i, child := range u.Children {
		var key []int
		if child.Kind() == apparatus.KindComment {
			key = lastKey
		} else {
			key = childKey(child)
			lastKey = key
		}
		keys[i] = keyed{child: child, key: key}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return apparatus.CompareKeys(keys[i].key, keys[j].key) < 0
	})
	for i := range keys {
		u.Children[i] = keys[i].child
	}
}

// childKey builds the composite sort key of one non-comment child.
func childKey(child apparatus.Child) []int {
	switch c := child.(type) {
	case *apparatus.Lemma:
		return []int{0}
	case *apparatus.Reading:
		return append([]int{1}, readingNumberKey(c.N)...)
	case *apparatus.WitDetail:
		key := []int{2}
		switch c.Type {
		case "ambiguous":
			key = append(key, 0)
			for _, t := range sortedTargetKeys(c) {
				key = append(key, t)
			}
			if parts := strings.Split(c.N, "-"); len(parts) > 1 {
				if v, err := strconv.Atoi(parts[1]); err == nil {
					key = append(key, v)
				}
			}
		case "overlap":
			key = append(key, 1)
		case "lac":
			key = append(key, 2)
		}
		return key
	case *apparatus.Note:
		return []int{3}
	}
	return []int{refKeyMax}
}

// readingNumberKey decomposes a compound reading number into its numeric
// sub-components: the plain number, then the parts tagged s, o, f, and v.
func readingNumberKey(n string) []int {
	key := make([]int, 5)
	for _, part := range strings.Split(n, "-") {
		if part == "" {
			continue
		}
		slot := 0
		switch part[0] {
		case 'v':
			slot = 4
		case 'f':
			slot = 3
		case 'o':
			slot = 2
		case 's':
			slot = 1
		}
		if v, err := strconv.Atoi(strings.TrimLeft(part, "vfos")); err == nil {
			key[slot] = v
		}
	}
	return key
}

// sortedTargetKeys returns the numeric keys of an ambiguous detail's
// targets, falling back to the targets encoded in its number when the
// target list is empty.
func sortedTargetKeys(d *apparatus.WitDetail) []int {
	targets := d.Targets
	if len(targets) == 0 && d.N != "" {
		first := strings.Split(strings.TrimPrefix(d.N, "W"), "-")[0]
		targets = strings.Split(first, "/")
	}
	keys := make([]int, len(targets))
	for i, t := range targets {
		keys[i] = refKey(t)
	}
	sort.Ints(keys)
	return keys
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

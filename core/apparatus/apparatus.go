// Package apparatus defines the in-memory model of a critical apparatus:
// variation units with their readings, witness details, and relation notes,
// and the collation that binds units to one canonical witness list.
//
// The model mirrors the TEI encoding it is loaded from (app, lem, rdg,
// witDetail, note) closely enough that a rewritten unit can be serialized
// back without loss, but all identifiers and citation lists are plain
// strings owned by the unit; nothing here touches the source document.
package apparatus

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// LacunaSentinel is the reserved reading number meaning "no attested
	// reading for this witness at this unit".
	LacunaSentinel = "Z"
	// RellToken is the reserved citation meaning "all witnesses not
	// otherwise cited in this unit".
	RellToken = "rell"
)

// Kind discriminates the direct children of a variation unit. The order of
// the constants is the canonical sort rank of each kind.
type Kind int

const (
	KindLemma Kind = iota
	KindReading
	KindWitDetail
	KindNote
	KindComment
)

// Child is one direct child of a variation unit.
type Child interface {
	Kind() Kind
}

// Attestor is a child that carries a witness citation list.
type Attestor interface {
	Child
	Number() string
	Citations() []string
}

// Element is a generic content node inside a reading or lemma (w, gap,
// space, ex, unclear, supplied, choice, ref, abbr, hi, seg, ...). Tag is the
// local name without namespace prefix.
type Element struct {
	Tag      string
	Text     string // character data before the first child
	Tail     string // character data following this element
	Attrs    map[string]string
	Children []*Element
}

// Attr returns the named attribute or "".
func (e *Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// SetAttr sets an attribute, allocating the map on first use.
func (e *Element) SetAttr(name, value string) {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := &Element{Tag: e.Tag, Text: e.Text, Tail: e.Tail}
	if e.Attrs != nil {
		c.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			c.Attrs[k] = v
		}
	}
	for _, child := range e.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Lemma is the base-text reading of a unit.
type Lemma struct {
	ID      string
	N       string
	Wits    []string
	Text    string
	Content []*Element
}

func (*Lemma) Kind() Kind { return KindLemma }

// Reading is one candidate wording of a variation unit. An empty Type marks
// a substantive reading; otherwise Type is one of reconstructed, defective,
// orthographic, subreading, ambiguous, overlap, or lac.
type Reading struct {
	ID      string // xml:id, may be empty
	N       string // local number, possibly compound (e.g. "1-s1")
	Type    string
	Cause   string
	Ana     string
	Lang    string
	Wits    []string
	Text    string
	Content []*Element
}

func (*Reading) Kind() Kind { return KindReading }

// Number returns the reading's local number.
func (r *Reading) Number() string { return r.N }

// Citations returns the reading's witness citation list.
func (r *Reading) Citations() []string { return r.Wits }

// Substantive reports whether the reading carries no trivial-kind tag.
func (r *Reading) Substantive() bool { return r.Type == "" }

// WitDetail is an auxiliary attestation entry: ambiguous, overlap, or lac.
type WitDetail struct {
	ID          string
	N           string // e.g. "W1/2" or "W1/2-2" for ambiguous entries
	Type        string // "ambiguous", "overlap", or "lac"
	Wits        []string
	Targets     []string // reading references for ambiguous entries
	Text        string
	Content     []*Element
	Certainties []*Certainty
}

func (*WitDetail) Kind() Kind { return KindWitDetail }

// Number returns the detail's local number.
func (d *WitDetail) Number() string { return d.N }

// Citations returns the detail's witness citation list.
func (d *WitDetail) Citations() []string { return d.Wits }

// Certainty assigns a likelihood to one target reading of an ambiguous
// witness detail.
type Certainty struct {
	Target string
	Locus  string
	Degree string
}

// Relation is one intrinsic or transcriptional link between readings.
type Relation struct {
	Active  []string
	Passive []string
	Ana     string
}

// ListRelation groups relations of one type under a note.
type ListRelation struct {
	Type      string // "intrinsic" or "transcriptional"
	Relations []*Relation
}

// Note holds editorial commentary and relation lists.
type Note struct {
	Text  string
	Lists []*ListRelation
}

func (*Note) Kind() Kind { return KindNote }

// Comment is a structural comment between unit children. It is not itself
// sortable; canonical ordering keeps it attached to its preceding sibling.
type Comment struct {
	Text string
}

func (*Comment) Kind() Kind { return KindComment }

// Unit is one variation unit: an identifier plus its children in document
// order.
type Unit struct {
	ID       string
	Children []Child
}

// Readings returns the unit's direct reading children in document order.
func (u *Unit) Readings() []*Reading {
	var rdgs []*Reading
	for _, c := range u.Children {
		if r, ok := c.(*Reading); ok {
			rdgs = append(rdgs, r)
		}
	}
	return rdgs
}

// WitDetails returns the unit's witness-detail children in document order.
func (u *Unit) WitDetails() []*WitDetail {
	var details []*WitDetail
	for _, c := range u.Children {
		if d, ok := c.(*WitDetail); ok {
			details = append(details, d)
		}
	}
	return details
}

// Notes returns the unit's note children in document order.
func (u *Unit) Notes() []*Note {
	var notes []*Note
	for _, c := range u.Children {
		if n, ok := c.(*Note); ok {
			notes = append(notes, n)
		}
	}
	return notes
}

// Attestors returns the unit's readings and witness details in document
// order.
func (u *Unit) Attestors() []Attestor {
	var list []Attestor
	for _, c := range u.Children {
		if a, ok := c.(Attestor); ok {
			list = append(list, a)
		}
	}
	return list
}

// ReadingOrder maps each reading number to its appearance index within the
// unit, covering readings and witness details alike. The lacuna sentinel is
// appended when the unit has no lacuna entry of its own, so the map is total
// over every number the attestation matrix can produce for this unit.
func (u *Unit) ReadingOrder() map[string]int {
	order := make(map[string]int)
	for _, a := range u.Attestors() {
		if _, ok := order[a.Number()]; !ok {
			order[a.Number()] = len(order)
		}
	}
	if _, ok := order[LacunaSentinel]; !ok {
		order[LacunaSentinel] = len(order)
	}
	return order
}

// SubstantiveNumbers returns the sorted set of substantive reading numbers.
func (u *Unit) SubstantiveNumbers() []string {
	var nums []string
	for _, r := range u.Readings() {
		if r.Substantive() {
			nums = append(nums, r.N)
		}
	}
	sort.Strings(nums)
	return nums
}

// Collation is an ordered list of variation units sharing one canonical
// witness list. The witness list is read-only reference data; it defines
// every tie-break and sort order used by the engines.
type Collation struct {
	Witnesses    []string
	WitnessIndex map[string]int
	Units        []*Unit
}

// NewCollation builds a collation over the given canonical witness list.
func NewCollation(witnesses []string, units []*Unit) *Collation {
	c := &Collation{
		Witnesses:    witnesses,
		WitnessIndex: make(map[string]int, len(witnesses)),
		Units:        units,
	}
	for i, w := range witnesses {
		if _, ok := c.WitnessIndex[w]; !ok {
			c.WitnessIndex[w] = i
		}
	}
	return c
}

// Finding is one reportable, non-fatal observation about a unit. Findings
// are collected and surfaced to the caller; they never abort processing.
type Finding struct {
	UnitID   string
	Category string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Category, f.UnitID, f.Message)
}

// CompareKeys compares two composite integer sort keys lexicographically,
// with a shorter key ordering before any extension of itself.
func CompareKeys(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// RefNumber extracts the local reading number from a reading reference: a
// bare number is returned as-is, while an xml:id reference such as
// "#B10K2V3U10R2" yields the part after the final "R".
func RefNumber(ref string) string {
	if strings.HasPrefix(ref, "#") {
		if i := strings.LastIndex(ref, "R"); i >= 0 {
			return ref[i+1:]
		}
		return strings.TrimPrefix(ref, "#")
	}
	return ref
}

// SplitCitations splits a raw wit attribute value into citation tokens,
// dropping the "#" reference markers the TEI encoding uses.
func SplitCitations(wit string) []string {
	return strings.Fields(strings.ReplaceAll(wit, "#", ""))
}

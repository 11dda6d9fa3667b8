// Package siglum resolves witness citations into a canonical base siglum and
// an ordered stack of role-tagged suffixes.
//
// A citation such as "01C2" names the second corrector of witness "01"; the
// resolver decomposes it into the base "01" and the suffix stack ["C2"].
// The suffix vocabulary is not fixed: callers register the suffixes used by
// their collation, each under one of five roles, and the registration order
// doubles as the precedence used for sorting subwitnesses.
package siglum

import "strings"

// Role classifies a suffix token. Every registered suffix belongs to exactly
// one role; roles drive the pair-matching rules used by the validator.
type Role int

const (
	// FirstHand marks the original scribe's text (e.g. "*").
	FirstHand Role = iota
	// MainText marks the running text of a witness that also carries
	// alternate readings (e.g. "T").
	MainText
	// Corrector marks a correcting hand (e.g. "C", "C1", "C2").
	Corrector
	// Alternate marks an alternate, marginal, or commentary reading
	// (e.g. "A", "K").
	Alternate
	// Multiple marks one of several attestations of the same passage in
	// one witness (e.g. "/1", "/2").
	Multiple
)

// String returns the human-readable role name used in reports.
func (r Role) String() string {
	switch r {
	case FirstHand:
		return "first hand"
	case MainText:
		return "main text"
	case Corrector:
		return "corrector"
	case Alternate:
		return "alternate text"
	case Multiple:
		return "multiple attestation"
	}
	return "unknown"
}

// Counterpart returns the role that must accompany r at the same suffix
// position for a witness's citations to be consistent within one variation
// unit: a first hand implies a corrector, a main text implies an alternate
// text, and a multiple attestation implies another multiple attestation.
func (r Role) Counterpart() Role {
	switch r {
	case FirstHand:
		return Corrector
	case Corrector:
		return FirstHand
	case MainText:
		return Alternate
	case Alternate:
		return MainText
	case Multiple:
		return Multiple
	}
	return r
}

// Compatible reports whether suffixes of roles a and b may stand opposite
// each other at the same stack position.
func Compatible(a, b Role) bool {
	return a.Counterpart() == b
}

// Suffix is one registered suffix token together with its role.
type Suffix struct {
	Text string
	Role Role
}

// Table is the ordered suffix registry for a collation. Registration order
// is precedence: when two registered suffixes of equal length match the end
// of a citation, the earlier one wins decomposition, and subwitnesses sort
// by the registration index of each suffix in their stack.
type Table struct {
	suffixes []Suffix
	index    map[string]int
}

// NewTable returns an empty suffix table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Register appends the given suffix texts under one role. Re-registering a
// text is a no-op; the first registration keeps its role and precedence.
func (t *Table) Register(role Role, texts ...string) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		if _, ok := t.index[text]; ok {
			continue
		}
		t.index[text] = len(t.suffixes)
		t.suffixes = append(t.suffixes, Suffix{Text: text, Role: role})
	}
}

// Len returns the number of registered suffixes.
func (t *Table) Len() int {
	return len(t.suffixes)
}

// Index returns the precedence index of a registered suffix text, or -1.
func (t *Table) Index(text string) int {
	if i, ok := t.index[text]; ok {
		return i
	}
	return -1
}

// Lookup returns the registered suffix for a text.
func (t *Table) Lookup(text string) (Suffix, bool) {
	if i, ok := t.index[text]; ok {
		return t.suffixes[i], true
	}
	return Suffix{}, false
}

// match returns the suffix to strip from the end of wit: the longest
// registered suffix wit ends with, ties broken by registration order.
func (t *Table) match(wit string) (Suffix, bool) {
	best := -1
	for i, s := range t.suffixes {
		if !strings.HasSuffix(wit, s.Text) {
			continue
		}
		if best < 0 || len(s.Text) > len(t.suffixes[best].Text) {
			best = i
		}
	}
	if best < 0 {
		return Suffix{}, false
	}
	return t.suffixes[best], true
}

// Decomposition is the result of resolving a witness citation.
type Decomposition struct {
	// Input is the citation exactly as it appeared in the document.
	Input string
	// Base is the siglum left after suffix stripping. When Resolved is
	// false and no suffix matched either, Base equals Input.
	Base string
	// Suffixes is the stripped suffix stack, outermost last, in the order
	// the suffixes appear in the citation.
	Suffixes []Suffix
	// Resolved reports whether Base is a member of the canonical witness
	// list. An unresolved decomposition is reported, never coerced.
	Resolved bool
}

// String reassembles the citation from its parts. For a resolved
// decomposition this reproduces the input exactly.
func (d Decomposition) String() string {
	var sb strings.Builder
	sb.WriteString(d.Base)
	for _, s := range d.Suffixes {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// StackTexts returns the suffix texts of the stack in order.
func (d Decomposition) StackTexts() []string {
	texts := make([]string, len(d.Suffixes))
	for i, s := range d.Suffixes {
		texts[i] = s.Text
	}
	return texts
}

// Resolve decomposes a witness citation against the canonical witness list.
// Registered suffixes are stripped greedily from the end of the citation
// until the remainder is a canonical base witness, no registered suffix
// matches, or the citation is exhausted. A citation whose remainder never
// reaches a canonical base is returned with Resolved false; when the
// citation is exhausted outright the literal input is preserved as Base.
func (t *Table) Resolve(wit string, canon map[string]int) Decomposition {
	d := Decomposition{Input: wit, Base: wit}
	for {
		if _, ok := canon[d.Base]; ok {
			d.Resolved = true
			return d
		}
		s, ok := t.match(d.Base)
		if !ok {
			return d
		}
		d.Base = d.Base[:len(d.Base)-len(s.Text)]
		d.Suffixes = append([]Suffix{s}, d.Suffixes...)
		if d.Base == "" {
			// Exhausted without reaching a canonical base; keep the
			// citation verbatim rather than guessing.
			return Decomposition{Input: wit, Base: wit}
		}
	}
}

// Decompose strips registered suffixes from the end of a citation until no
// suffix matches, without consulting a witness list. It is the variant used
// where only the suffix stack matters (the validator's pair matching).
func (t *Table) Decompose(wit string) (base string, stack []Suffix) {
	base = wit
	for base != "" {
		s, ok := t.match(base)
		if !ok {
			break
		}
		base = base[:len(base)-len(s.Text)]
		stack = append([]Suffix{s}, stack...)
	}
	return base, stack
}

// BaseOf strips trailing characters from a citation one at a time until a
// member of the canonical witness list is reached. It is the cruder variant
// of Resolve used where only grouping by base witness matters. When no base
// is reached the citation is returned unchanged with ok false.
func BaseOf(wit string, canon map[string]int) (base string, ok bool) {
	base = wit
	for base != "" {
		if _, found := canon[base]; found {
			return base, true
		}
		base = base[:len(base)-1]
	}
	return wit, false
}

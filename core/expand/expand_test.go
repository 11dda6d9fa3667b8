package expand

import (
	"reflect"
	"testing"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/siglum"
)

func testTable() *siglum.Table {
	t := siglum.NewTable()
	t.Register(siglum.FirstHand, "*")
	t.Register(siglum.MainText, "T")
	t.Register(siglum.Corrector, "C", "C1", "C2")
	t.Register(siglum.Alternate, "A", "K")
	t.Register(siglum.Multiple, "/1", "/2")
	return t
}

func collation(witnesses []string, units ...*apparatus.Unit) *apparatus.Collation {
	return apparatus.NewCollation(witnesses, units)
}

func TestPositiveExpandsRell(t *testing.T) {
	r1 := &apparatus.Reading{N: "1", Wits: []string{"A", "B"}}
	r2 := &apparatus.Reading{N: "2", Wits: []string{apparatus.RellToken}}
	u := &apparatus.Unit{ID: "U1", Children: []apparatus.Child{r1, r2}}
	c := collation([]string{"A", "B", "C", "D"}, u)

	findings := Positive(c, testTable())
	if len(findings) != 0 {
		t.Fatalf("unexpected findings: %v", findings)
	}
	if !reflect.DeepEqual(r2.Wits, []string{"C", "D"}) {
		t.Errorf("expanded rell = %v, want [C D]", r2.Wits)
	}

	// Expanded set and cited set are disjoint; union is the full list.
	all := append(append([]string{}, r1.Wits...), r2.Wits...)
	seen := make(map[string]bool)
	for _, w := range all {
		if seen[w] {
			t.Errorf("witness %s cited twice after expansion", w)
		}
		seen[w] = true
	}
	if len(seen) != 4 {
		t.Errorf("union = %v, want full canonical list", all)
	}
}

func TestPositiveSuffixedCitationCountsItsBase(t *testing.T) {
	// 01 is cited only through its corrector; rell must still exclude 01.
	r1 := &apparatus.Reading{N: "1", Wits: []string{"01C2"}}
	r2 := &apparatus.Reading{N: "2", Wits: []string{apparatus.RellToken}}
	u := &apparatus.Unit{ID: "U1", Children: []apparatus.Child{r1, r2}}
	c := collation([]string{"01", "02"}, u)

	Positive(c, testTable())
	if !reflect.DeepEqual(r2.Wits, []string{"02"}) {
		t.Errorf("expanded rell = %v, want [02]", r2.Wits)
	}
}

func TestPositiveSortsByBaseThenSuffixPrecedence(t *testing.T) {
	r := &apparatus.Reading{N: "1", Wits: []string{"02", "01C2", "01*", "01T"}}
	u := &apparatus.Unit{ID: "U1", Children: []apparatus.Child{r}}
	c := collation([]string{"01", "02"}, u)

	findings := Positive(c, testTable())
	if len(findings) != 0 {
		t.Fatalf("unexpected findings: %v", findings)
	}
	want := []string{"01*", "01T", "01C2", "02"}
	if !reflect.DeepEqual(r.Wits, want) {
		t.Errorf("sorted wits = %v, want %v", r.Wits, want)
	}
}

func TestPositiveUnresolvedCitationKeepsPosition(t *testing.T) {
	r := &apparatus.Reading{N: "1", Wits: []string{"02", "bogus", "01"}}
	u := &apparatus.Unit{ID: "U1", Children: []apparatus.Child{r}}
	c := collation([]string{"01", "02"}, u)

	findings := Positive(c, testTable())
	if len(findings) != 1 || findings[0].Category != "unresolved-citation" {
		t.Fatalf("findings = %v", findings)
	}
	if findings[0].UnitID != "U1" {
		t.Errorf("finding unit = %q", findings[0].UnitID)
	}
	want := []string{"01", "bogus", "02"}
	if !reflect.DeepEqual(r.Wits, want) {
		t.Errorf("wits = %v, want %v (unresolved keeps its slot)", r.Wits, want)
	}
}

func TestPositiveRewritesWitDetails(t *testing.T) {
	d := &apparatus.WitDetail{N: "W1/2", Type: "ambiguous", Wits: []string{"02", "01"}}
	u := &apparatus.Unit{ID: "U1", Children: []apparatus.Child{d}}
	c := collation([]string{"01", "02"}, u)

	Positive(c, testTable())
	if !reflect.DeepEqual(d.Wits, []string{"01", "02"}) {
		t.Errorf("witDetail wits = %v", d.Wits)
	}
}

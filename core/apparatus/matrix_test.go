package apparatus

import (
	"reflect"
	"testing"

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

func unitWithReadings(id string, rdgs ...*Reading) *Unit {
	u := &Unit{ID: id}
	for _, r := range rdgs {
		u.Children = append(u.Children, r)
	}
	return u
}

func TestAttestationsBareWitnesses(t *testing.T) {
	u1 := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"A", "C"}},
		&Reading{N: "2", Wits: []string{"B"}},
	)
	u2 := unitWithReadings("U2",
		&Reading{N: "1", Wits: []string{"A", "B", "C"}},
	)
	c := NewCollation([]string{"A", "B", "C", "D"}, []*Unit{u1, u2})

	m, findings := c.Attestations(testTable())
	if len(findings) != 0 {
		t.Fatalf("unexpected findings: %v", findings)
	}
	want := map[string][]string{
		"A": {"1", "1"},
		"B": {"2", "1"},
		"C": {"1", "1"},
		"D": {LacunaSentinel, LacunaSentinel},
	}
	if !reflect.DeepEqual(m.Sequences, want) {
		t.Errorf("sequences = %v, want %v", m.Sequences, want)
	}
	if !reflect.DeepEqual(m.Keys, []string{"A", "B", "C", "D"}) {
		t.Errorf("keys = %v", m.Keys)
	}
}

func TestAttestationsBareBaseAppliesToSubwitnesses(t *testing.T) {
	// Unit 1 cites the first hand and a corrector separately; unit 2 cites
	// the bare base, which must cover both subwitness keys.
	u1 := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"01*"}},
		&Reading{N: "2", Wits: []string{"01C2"}},
	)
	u2 := unitWithReadings("U2",
		&Reading{N: "1", Wits: []string{"01"}},
	)
	c := NewCollation([]string{"01"}, []*Unit{u1, u2})

	m, _ := c.Attestations(testTable())
	if got := m.Sequences["01*"]; !reflect.DeepEqual(got, []string{"1", "1"}) {
		t.Errorf("01* sequence = %v", got)
	}
	if got := m.Sequences["01C2"]; !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("01C2 sequence = %v", got)
	}
	if _, ok := m.Sequences["01"]; ok {
		t.Error("bare base key should not exist when subwitnesses are registered")
	}
}

func TestAttestationsBareBaseSkipsSeparatelyCitedKeys(t *testing.T) {
	// The bare base and a subwitness are cited under different readings in
	// the same unit, base first. The separately-cited key must keep its own
	// reading regardless of citation order.
	u := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"01"}},
		&Reading{N: "2", Wits: []string{"01C2"}},
	)
	u2 := unitWithReadings("U2",
		&Reading{N: "1", Wits: []string{"01*", "01C2"}},
	)
	c := NewCollation([]string{"01"}, []*Unit{u, u2})

	m, _ := c.Attestations(testTable())
	if got := m.Sequences["01C2"]; !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("01C2 sequence = %v", got)
	}
	if got := m.Sequences["01*"]; !reflect.DeepEqual(got, []string{"1", "1"}) {
		t.Errorf("01* sequence = %v", got)
	}
}

func TestAttestationsPrefixSubsumption(t *testing.T) {
	// "01A" is a stack prefix of "01A/1": the shorter key is subsumed.
	u := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"01A"}},
		&Reading{N: "2", Wits: []string{"01A/1"}},
	)
	c := NewCollation([]string{"01"}, []*Unit{u})

	m, _ := c.Attestations(testTable())
	if _, ok := m.Sequences["01A"]; ok {
		t.Error("prefix key 01A should be subsumed by 01A/1")
	}
	if got := m.Sequences["01A/1"]; !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("01A/1 sequence = %v", got)
	}
}

func TestAttestationsSuffixesSharingCharactersDoNotAlias(t *testing.T) {
	// "01C" is not a stack prefix of "01C2" even though it is a string
	// prefix: C and C2 are distinct registered suffixes. Both keys survive.
	u := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"01C"}},
		&Reading{N: "2", Wits: []string{"01C2"}},
	)
	c := NewCollation([]string{"01"}, []*Unit{u})

	m, _ := c.Attestations(testTable())
	if got := m.Sequences["01C"]; !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("01C sequence = %v", got)
	}
	if got := m.Sequences["01C2"]; !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("01C2 sequence = %v", got)
	}
}

func TestAttestationsUnresolvedCitationReported(t *testing.T) {
	u := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"žžž"}},
	)
	c := NewCollation([]string{"01"}, []*Unit{u})

	m, findings := c.Attestations(testTable())
	if len(findings) != 1 || findings[0].Category != "unresolved-citation" {
		t.Fatalf("findings = %v", findings)
	}
	if got := m.Sequences["01"]; !reflect.DeepEqual(got, []string{LacunaSentinel}) {
		t.Errorf("01 sequence = %v", got)
	}
}

func TestAttestationsPartition(t *testing.T) {
	// Every witness in the canonical list contributes at least one key, and
	// every key belongs to exactly one base.
	u := unitWithReadings("U1",
		&Reading{N: "1", Wits: []string{"01*", "02"}},
		&Reading{N: "2", Wits: []string{"01C"}},
	)
	c := NewCollation([]string{"01", "02", "03"}, []*Unit{u})

	m, _ := c.Attestations(testTable())
	seen := make(map[string]bool)
	for _, key := range m.Keys {
		if seen[key] {
			t.Errorf("key %s listed twice", key)
		}
		seen[key] = true
		if _, ok := m.Sequences[key]; !ok {
			t.Errorf("key %s has no sequence", key)
		}
		if m.Bases[key] == "" {
			t.Errorf("key %s has no base", key)
		}
	}
	if len(m.Keys) != len(m.Sequences) {
		t.Errorf("keys %d != sequences %d", len(m.Keys), len(m.Sequences))
	}
	bases := map[string]bool{"01": false, "02": false, "03": false}
	for _, key := range m.Keys {
		bases[m.Bases[key]] = true
	}
	for base, present := range bases {
		if !present {
			t.Errorf("base %s has no row", base)
		}
	}
}

func TestReadingOrderAppendsSentinel(t *testing.T) {
	u := unitWithReadings("U1",
		&Reading{N: "1"},
		&Reading{N: "2"},
	)
	u.Children = append(u.Children, &WitDetail{N: "W1/2", Type: "ambiguous"})

	order := u.ReadingOrder()
	want := map[string]int{"1": 0, "2": 1, "W1/2": 2, LacunaSentinel: 3}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSplitCitations(t *testing.T) {
	got := SplitCitations("#01 #02C2  #P46")
	if !reflect.DeepEqual(got, []string{"01", "02C2", "P46"}) {
		t.Errorf("SplitCitations = %v", got)
	}
}

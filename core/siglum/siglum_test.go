package siglum

import "testing"

// testTable returns a suffix table covering all five roles, in a precedence
// order typical of Gregory-Aland style collations.
func testTable() *Table {
	t := NewTable()
	t.Register(FirstHand, "*")
	t.Register(MainText, "T")
	t.Register(Corrector, "C", "C1", "C2", "C3")
	t.Register(Alternate, "A", "A1", "A2", "K")
	t.Register(Multiple, "/1", "/2", "/3")
	return t
}

func testCanon() map[string]int {
	return map[string]int{"01": 0, "02": 1, "03": 2, "P46": 3, "L156": 4}
}

func TestResolveRoundtrip(t *testing.T) {
	table := testTable()
	canon := testCanon()

	tests := []struct {
		wit      string
		base     string
		suffixes []string
	}{
		{"01", "01", nil},
		{"01*", "01", []string{"*"}},
		{"01C2", "01", []string{"C2"}},
		{"P46T", "P46", []string{"T"}},
		{"P46A/1", "P46", []string{"A", "/1"}},
		{"L156TK/2", "L156", []string{"T", "K", "/2"}},
	}
	for _, tt := range tests {
		d := table.Resolve(tt.wit, canon)
		if !d.Resolved {
			t.Errorf("Resolve(%q) not resolved", tt.wit)
			continue
		}
		if d.Base != tt.base {
			t.Errorf("Resolve(%q) base = %q, want %q", tt.wit, d.Base, tt.base)
		}
		if len(d.Suffixes) != len(tt.suffixes) {
			t.Errorf("Resolve(%q) suffixes = %v, want %v", tt.wit, d.StackTexts(), tt.suffixes)
			continue
		}
		for i, text := range tt.suffixes {
			if d.Suffixes[i].Text != text {
				t.Errorf("Resolve(%q) suffix %d = %q, want %q", tt.wit, i, d.Suffixes[i].Text, text)
			}
		}
		// Reassembling a resolved decomposition must reproduce the input.
		if d.String() != tt.wit {
			t.Errorf("Resolve(%q).String() = %q", tt.wit, d.String())
		}
	}
}

func TestResolveLongestSuffixWins(t *testing.T) {
	table := testTable()
	canon := testCanon()

	// "C2" must be stripped as one suffix, not as "C" leaving a dangling "2".
	d := table.Resolve("01C2", canon)
	if !d.Resolved || len(d.Suffixes) != 1 || d.Suffixes[0].Text != "C2" {
		t.Fatalf("Resolve(01C2) = %+v, want single C2 suffix", d)
	}
	if d.Suffixes[0].Role != Corrector {
		t.Errorf("suffix role = %v, want corrector", d.Suffixes[0].Role)
	}
}

func TestResolveUnresolved(t *testing.T) {
	table := testTable()
	canon := testCanon()

	// An unregistered base is kept verbatim and flagged, never coerced.
	d := table.Resolve("99*", canon)
	if d.Resolved {
		t.Fatal("Resolve(99*) should not resolve")
	}
	if d.Base != "99" || len(d.Suffixes) != 1 {
		t.Errorf("Resolve(99*) best-effort base = %q, suffixes = %v", d.Base, d.StackTexts())
	}

	// A citation consumed entirely by suffixes falls back to the literal input.
	d = table.Resolve("TK", canon)
	if d.Resolved || d.Base != "TK" || d.Suffixes != nil {
		t.Errorf("Resolve(TK) = %+v, want literal fallback", d)
	}
}

func TestDecompose(t *testing.T) {
	table := testTable()
	base, stack := table.Decompose("01TA/1")
	if base != "01" || len(stack) != 3 {
		t.Fatalf("Decompose(01TA/1) = %q, %v", base, stack)
	}
	if stack[0].Text != "T" || stack[1].Text != "A" || stack[2].Text != "/1" {
		t.Errorf("stack order wrong: %v", stack)
	}
}

func TestBaseOfFixedPoint(t *testing.T) {
	canon := testCanon()
	for wit := range canon {
		base, ok := BaseOf(wit, canon)
		if !ok || base != wit {
			t.Errorf("BaseOf(%q) = %q, %v; want fixed point", wit, base, ok)
		}
	}
}

func TestBaseOfStripsCharacters(t *testing.T) {
	canon := testCanon()
	base, ok := BaseOf("01C2", canon)
	if !ok || base != "01" {
		t.Errorf("BaseOf(01C2) = %q, %v", base, ok)
	}
	base, ok = BaseOf("XYZ", canon)
	if ok || base != "XYZ" {
		t.Errorf("BaseOf(XYZ) = %q, %v; want unchanged and flagged", base, ok)
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b Role
		want bool
	}{
		{FirstHand, Corrector, true},
		{Corrector, FirstHand, true},
		{MainText, Alternate, true},
		{Alternate, MainText, true},
		{Multiple, Multiple, true},
		{FirstHand, FirstHand, false},
		{FirstHand, Alternate, false},
		{Corrector, Multiple, false},
	}
	for _, tt := range tests {
		if got := Compatible(tt.a, tt.b); got != tt.want {
			t.Errorf("Compatible(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

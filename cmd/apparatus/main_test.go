package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/Apparatus/core/errors"
)

const testDoc = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc>
      <sourceDesc>
        <listWit>
          <witness xml:id="01"/>
          <witness xml:id="02"/>
          <witness xml:id="03"/>
          <witness xml:id="L2010"/>
        </listWit>
      </sourceDesc>
    </fileDesc>
  </teiHeader>
  <text>
    <body>
      <app xml:id="B04K1V1U2">
        <rdg n="1" wit="#01 #02"><w>λογος</w></rdg>
        <rdg n="2" wit="rell"/>
      </app>
      <app xml:id="B04K1V1U4">
        <rdg n="1" wit="#01 #02"><w>εν</w></rdg>
        <rdg n="2" wit="#03 #L2010"/>
      </app>
      <app xml:id="B04K1V1U6">
        <rdg n="1" wit="#01"><w>θεος</w></rdg>
        <rdg n="2" wit="#02"/>
        <rdg n="3" wit="#03 #L2010"><w>κυριος</w></rdg>
      </app>
      <app xml:id="B04K1V1U8">
        <rdg n="1" wit="#01 #03"><w>ιδε</w></rdg>
        <rdg n="2" wit="#02"><w>ειδε</w></rdg>
        <rdg xml:id="B04K1V1U8RW1-2" n="W1/2" type="ambiguous" wit="#L2010"/>
      </app>
    </body>
  </text>
</TEI>
`

func writeTestDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collation.xml")
	if err := os.WriteFile(path, []byte(testDoc), 0644); err != nil {
		t.Fatalf("failed to write test document: %v", err)
	}
	return path
}

func runToFile(t *testing.T, run func(output string) error) string {
	t.Helper()
	output := filepath.Join(t.TempDir(), "out.xml")
	if err := run(output); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(data)
}

func TestValidateCmd(t *testing.T) {
	cmd := &ValidateCmd{Input: writeTestDoc(t)}
	if err := cmd.Run(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestPositiveCmd(t *testing.T) {
	input := writeTestDoc(t)
	out := runToFile(t, func(output string) error {
		cmd := &PositiveCmd{Input: input, Output: output}
		return cmd.Run()
	})

	// rell expands to the witnesses not cited elsewhere in the unit.
	if !strings.Contains(out, `<rdg n="2" wit="#03 #L2010"/>`) {
		t.Errorf("rell was not expanded:\n%s", out)
	}
	if strings.Contains(out, "rell") {
		t.Errorf("rell token survived expansion:\n%s", out)
	}
}

func TestMergeCmd(t *testing.T) {
	input := writeTestDoc(t)
	out := runToFile(t, func(output string) error {
		cmd := &MergeCmd{
			Input:  input,
			Units:  []string{"B04K1V1U4", "B04K1V1U6"},
			Output: output,
		}
		return cmd.Run()
	})

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("merged output missing XML declaration:\n%s", out)
	}
	for _, want := range []string{
		`<rdg n="1,1" wit="#01">`,
		`<rdg n="1,2" wit="#02">`,
		`<rdg n="2,3" wit="#03 #L2010">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("merged output missing %q:\n%s", want, out)
		}
	}
}

func TestMergeCmdMissingUnit(t *testing.T) {
	cmd := &MergeCmd{Input: writeTestDoc(t), Units: []string{"B99K9V9U9"}}
	if err := cmd.Run(); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("merge with missing unit: error = %v, want ErrNotFound", err)
	}
}

func TestTransposeCmd(t *testing.T) {
	input := writeTestDoc(t)
	out := runToFile(t, func(output string) error {
		cmd := &TransposeCmd{
			Input:    input,
			Unit:     "B04K1V1U6",
			Sequence: "(3,1,2)",
			Output:   output,
		}
		return cmd.Run()
	})

	// Old reading 3 becomes reading 1 and leads the unit.
	first := strings.Index(out, `<rdg n="1" wit="#03 #L2010"><w>κυριος</w></rdg>`)
	second := strings.Index(out, `<rdg n="2" wit="#01"><w>θεος</w></rdg>`)
	third := strings.Index(out, `<rdg n="3" wit="#02"/>`)
	if first < 0 || second < 0 || third < 0 || !(first < second && second < third) {
		t.Errorf("transposed unit out of order:\n%s", out)
	}

	// Other units are untouched.
	if !strings.Contains(out, `<rdg n="1" wit="#01 #02"><w>εν</w></rdg>`) {
		t.Errorf("untouched unit was rewritten:\n%s", out)
	}
}

func TestTransposeCmdBadSequence(t *testing.T) {
	cmd := &TransposeCmd{
		Input:    writeTestDoc(t),
		Unit:     "B04K1V1U6",
		Sequence: "(1,2)",
	}
	if err := cmd.Run(); !errors.Is(err, errors.ErrStructural) {
		t.Errorf("transpose with bad sequence: error = %v, want ErrStructural", err)
	}
}

func TestReformatCmd(t *testing.T) {
	input := writeTestDoc(t)
	out := runToFile(t, func(output string) error {
		cmd := &ReformatCmd{Input: input, Output: output}
		return cmd.Run()
	})

	if !strings.Contains(out, `<witDetail xml:id="B04K1V1U8RW1-2" n="W1/2" type="ambiguous" target="1 2" wit="#L2010"/>`) {
		t.Errorf("ambiguous reading not converted:\n%s", out)
	}
	if strings.Contains(out, `<rdg xml:id="B04K1V1U8RW1-2"`) {
		t.Errorf("ambiguous rdg survived conversion:\n%s", out)
	}
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"(4,1,2,3)", []string{"4", "1", "2", "3"}, false},
		{"(1)", []string{"1"}, false},
		{" ( 2 , 1 ) ", []string{"2", "1"}, false},
		{"4,1,2,3", []string{"4", "1", "2", "3"}, false},
		{"(,)", nil, true},
		{"()", nil, true},
	}

	for _, tt := range tests {
		got, err := parseSequence(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSequence(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSequence(%q) error = %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseSequence(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSuffixFlagsTable(t *testing.T) {
	flags := SuffixFlags{
		FirstHand: []string{"*"},
		Corrector: []string{"C", "C1"},
		Multiple:  []string{"/1", "/2"},
	}
	table := flags.Table()
	if table.Len() != 5 {
		t.Errorf("Table().Len() = %d, want 5", table.Len())
	}
	if table.Index("*") != 0 || table.Index("C") != 1 || table.Index("/2") != 4 {
		t.Errorf("suffix precedence out of order")
	}
}

package gazette

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleAmendment = `{
  "ADD": [
    {"ministry_name": "Minister of Trade", "affected_column": "II", "details": ["Inserted: item 3 — Department of Trade"]},
    {"ministry_name": "Minister of Trade", "affected_column": "I", "details": ["Inserted: Promote exports"]}
  ],
  "OMIT": [
    {"ministry_name": "Minister of Finance", "affected_column": " ii ", "details": ["Omitted items 2, 4 and 6"]}
  ]
}`

func TestDecodeAmendment(t *testing.T) {
	document, err := DecodeAmendment(strings.NewReader(sampleAmendment), "sample")
	if err != nil {
		t.Fatalf("DecodeAmendment failed: %v", err)
	}

	entries := document.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Action != ActionAdd || entries[2].Action != ActionOmit {
		t.Errorf("actions not derived from list: %q, %q", entries[0].Action, entries[2].Action)
	}

	columnII := FilterColumn(entries, ColumnII)
	if len(columnII) != 2 {
		t.Fatalf("expected 2 column II entries, got %d", len(columnII))
	}
	if columnII[1].MinistryName != "Minister of Finance" {
		t.Errorf("unexpected ministry: %q", columnII[1].MinistryName)
	}
}

func TestDecodeAmendmentErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "malformed", input: `{"ADD": [`},
		{name: "no lists", input: `{"other": []}`},
		{name: "wrong shape", input: `{"ADD": "nope"}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := DecodeAmendment(strings.NewReader(testCase.input), "bad")
			var parseError *ParseError
			if !errors.As(err, &parseError) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseError.Source != "bad" {
				t.Errorf("unexpected source: %q", parseError.Source)
			}
		})
	}
}

func TestDecodePersonCaseInsensitiveMinistry(t *testing.T) {
	input := `{"ADD": [{"name": "John Silva", "Ministry": "M1", "position": "Minister", "date": "2022-07-22"}], "TERMINATE": []}`
	document, err := DecodePerson(strings.NewReader(input), "person")
	if err != nil {
		t.Fatalf("DecodePerson failed: %v", err)
	}
	if len(document.Add) != 1 || document.Add[0].Ministry != "M1" {
		t.Errorf("ministry not decoded: %+v", document.Add)
	}
}

func TestDecodeInitial(t *testing.T) {
	input := `{"ministers": [{"name": "Minister of Defence", "departments": ["Army", "Navy"]}]}`
	document, err := DecodeInitial(strings.NewReader(input), "initial")
	if err != nil {
		t.Fatalf("DecodeInitial failed: %v", err)
	}
	if len(document.Ministries) != 1 || len(document.Ministries[0].Departments) != 2 {
		t.Errorf("unexpected listing: %+v", document.Ministries)
	}

	if _, err := DecodeInitial(strings.NewReader(`{"ministers": []}`), "empty"); err == nil {
		t.Error("expected error for empty minister list")
	}
}

func TestReadAmendmentFileMissing(t *testing.T) {
	_, err := ReadAmendmentFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestReadAmendmentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazette.json")
	if err := os.WriteFile(path, []byte(sampleAmendment), 0644); err != nil {
		t.Fatal(err)
	}
	document, err := ReadAmendmentFile(path)
	if err != nil {
		t.Fatalf("ReadAmendmentFile failed: %v", err)
	}
	if len(document.Add) != 2 {
		t.Errorf("expected 2 ADD entries, got %d", len(document.Add))
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte(sampleAmendment), FormatAmendment, "a"); err != nil {
		t.Errorf("valid amendment rejected: %v", err)
	}
	if err := Validate([]byte(sampleAmendment), FormatInitial, "a"); err == nil {
		t.Error("amendment accepted as initial gazette")
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat(" Amendment ")
	if err != nil || format != FormatAmendment {
		t.Errorf("ParseFormat = %q, %v", format, err)
	}
	if KindFor(FormatPerson) != KindPerson || KindFor(FormatInitial) != KindMinDep {
		t.Error("KindFor mapped formats incorrectly")
	}
	if _, err := ParseFormat("bulletin"); err == nil {
		t.Error("expected error for unknown format")
	}
}

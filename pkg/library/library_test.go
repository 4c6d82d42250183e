package library

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coolbeans/gazette/pkg/gazette"
)

const (
	testAmendment = `{
  "ADD": [{"ministry_name": "Minister of Finance", "affected_column": "II", "details": ["12. Department of Excise"]}],
  "OMIT": [{"ministry_name": "Minister of Trade", "affected_column": "II", "details": ["Items 2 and 3"]}]
}`
	testPerson = `{
  "ADD": [{"name": "A. Perera", "Ministry": "Minister of Health", "position": "Minister", "date": "2022-10-02"}],
  "TERMINATE": []
}`
	testInitial = `{
  "ministers": [
    {"name": "Minister of Finance", "departments": ["General Treasury", "Department of Excise"]},
    {"name": "Minister of Trade", "departments": ["Department of Commerce"]}
  ]
}`
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Init(filepath.Join(t.TempDir(), "library"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return lib
}

func TestInitAndOpen(t *testing.T) {
	libraryPath := filepath.Join(t.TempDir(), "test-library")

	lib, err := Init(libraryPath)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if lib.Path() != libraryPath {
		t.Errorf("Path() = %q", lib.Path())
	}

	if _, err := os.Stat(filepath.Join(libraryPath, manifestFileName)); os.IsNotExist(err) {
		t.Error("manifest file was not created")
	}

	reopened, err := Open(libraryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(reopened.List()) != 0 {
		t.Errorf("expected empty library, got %d gazettes", len(reopened.List()))
	}
}

func TestOpenNonExistent(t *testing.T) {
	if _, err := Open("/nonexistent/path"); err == nil {
		t.Error("expected error for nonexistent library")
	}
}

func TestOpenOrInit(t *testing.T) {
	libraryPath := filepath.Join(t.TempDir(), "library")

	first, err := OpenOrInit(libraryPath)
	if err != nil {
		t.Fatalf("OpenOrInit (create) failed: %v", err)
	}
	if _, err := first.AddGazette("2289-43", []byte(testInitial), AddOptions{Date: "2022-07-22"}); err != nil {
		t.Fatalf("AddGazette failed: %v", err)
	}

	second, err := OpenOrInit(libraryPath)
	if err != nil {
		t.Fatalf("OpenOrInit (open) failed: %v", err)
	}
	if len(second.List()) != 1 {
		t.Errorf("expected existing gazette to survive, got %d", len(second.List()))
	}
}

func TestAddGazetteDetectsFormat(t *testing.T) {
	testCases := []struct {
		name       string
		number     string
		document   string
		wantFormat gazette.Format
		wantKind   gazette.Kind
	}{
		{"initial", "2289-43", testInitial, gazette.FormatInitial, gazette.KindMinDep},
		{"amendment", "2297-78", testAmendment, gazette.FormatAmendment, gazette.KindMinDep},
		{"person", "2301-12", testPerson, gazette.FormatPerson, gazette.KindPerson},
	}

	lib := newTestLibrary(t)
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			entry, err := lib.AddGazette(testCase.number, []byte(testCase.document), AddOptions{Date: "2022-09-16"})
			if err != nil {
				t.Fatalf("AddGazette failed: %v", err)
			}
			if entry.Format != testCase.wantFormat || entry.Kind != testCase.wantKind {
				t.Errorf("got format %s kind %s, want %s %s", entry.Format, entry.Kind, testCase.wantFormat, testCase.wantKind)
			}
			if entry.Status != StatusReady {
				t.Errorf("status = %s, want ready", entry.Status)
			}
		})
	}
}

func TestAddGazetteStats(t *testing.T) {
	lib := newTestLibrary(t)

	entry, err := lib.AddGazette("2297-78", []byte(testAmendment), AddOptions{Date: "2022-09-16"})
	if err != nil {
		t.Fatalf("AddGazette failed: %v", err)
	}
	if entry.Stats.Entries != 2 || entry.Stats.ColumnIIEntries != 2 || entry.Stats.DetailLines != 2 {
		t.Errorf("unexpected amendment stats: %+v", entry.Stats)
	}

	entry, err = lib.AddGazette("2289-43", []byte(testInitial), AddOptions{Date: "2022-07-22"})
	if err != nil {
		t.Fatalf("AddGazette failed: %v", err)
	}
	if entry.Stats.Ministries != 2 || entry.Stats.Departments != 3 {
		t.Errorf("unexpected initial stats: %+v", entry.Stats)
	}
}

func TestAddGazetteIdempotent(t *testing.T) {
	lib := newTestLibrary(t)

	first, err := lib.AddGazette("2297-78", []byte(testAmendment), AddOptions{Date: "2022-09-16"})
	if err != nil {
		t.Fatalf("first AddGazette failed: %v", err)
	}

	second, err := lib.AddGazette("2297-78", []byte(testInitial), AddOptions{Date: "2022-09-16"})
	if err != nil {
		t.Fatalf("second AddGazette failed: %v", err)
	}
	if second.Format != first.Format || !second.AddedAt.Equal(first.AddedAt) {
		t.Error("expected the existing entry to be returned without Force")
	}

	forced, err := lib.AddGazette("2297-78", []byte(testInitial), AddOptions{Date: "2022-09-16", Force: true})
	if err != nil {
		t.Fatalf("forced AddGazette failed: %v", err)
	}
	if forced.Format != gazette.FormatInitial {
		t.Errorf("Force should replace the document, got format %s", forced.Format)
	}
	if len(lib.List()) != 1 {
		t.Errorf("expected 1 gazette, got %d", len(lib.List()))
	}
}

func TestAddGazetteRejects(t *testing.T) {
	lib := newTestLibrary(t)

	if _, err := lib.AddGazette("", []byte(testAmendment), AddOptions{Date: "2022-09-16"}); err == nil {
		t.Error("expected error for empty number")
	}
	if _, err := lib.AddGazette("2297-78", []byte(testAmendment), AddOptions{Date: "16/09/2022"}); err == nil {
		t.Error("expected error for malformed date")
	}

	_, err := lib.AddGazette("2297-79", []byte(`{"ADD": "oops"}`), AddOptions{Date: "2022-09-16", Format: gazette.FormatAmendment})
	var parseError *gazette.ParseError
	if !errors.As(err, &parseError) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	entry, infoErr := lib.Info("2297-79")
	if infoErr != nil {
		t.Fatalf("failed gazette should be recorded: %v", infoErr)
	}
	if entry.Status != StatusFailed || entry.Error == "" {
		t.Errorf("expected failed status with error, got %+v", entry)
	}
	if _, err := lib.ReadAmendment("2297-79"); err == nil {
		t.Error("reading a failed gazette should fail")
	}
}

func TestRemoveGazette(t *testing.T) {
	lib := newTestLibrary(t)

	entry, err := lib.AddGazette("2297-78", []byte(testAmendment), AddOptions{Date: "2022-09-16"})
	if err != nil {
		t.Fatalf("AddGazette failed: %v", err)
	}
	documentPath := filepath.Join(lib.Path(), documentsDir, entry.StorageHash)

	if err := lib.RemoveGazette("2297-78"); err != nil {
		t.Fatalf("RemoveGazette failed: %v", err)
	}
	if _, err := os.Stat(documentPath); !os.IsNotExist(err) {
		t.Error("gazette directory should be removed")
	}
	if err := lib.RemoveGazette("2297-78"); !errors.Is(err, ErrGazetteNotFound) {
		t.Errorf("expected ErrGazetteNotFound, got %v", err)
	}
}

func TestReadDocuments(t *testing.T) {
	lib := newTestLibrary(t)
	mustAdd(t, lib, "2289-43", testInitial, "2022-07-22")
	mustAdd(t, lib, "2297-78", testAmendment, "2022-09-16")
	mustAdd(t, lib, "2301-12", testPerson, "2022-10-01")

	amendment, err := lib.ReadAmendment("2297-78")
	if err != nil {
		t.Fatalf("ReadAmendment failed: %v", err)
	}
	if amendment.Number != "2297-78" || amendment.Date != "2022-09-16" || len(amendment.Entries()) != 2 {
		t.Errorf("unexpected amendment: %+v", amendment)
	}

	person, err := lib.ReadPerson("2301-12")
	if err != nil {
		t.Fatalf("ReadPerson failed: %v", err)
	}
	if person.Date != "2022-10-01" || len(person.Add) != 1 || person.Add[0].Ministry != "Minister of Health" {
		t.Errorf("unexpected person gazette: %+v", person)
	}

	initial, err := lib.ReadInitial("2289-43")
	if err != nil {
		t.Fatalf("ReadInitial failed: %v", err)
	}
	if len(initial.Ministries) != 2 {
		t.Errorf("expected 2 ministries, got %d", len(initial.Ministries))
	}

	if _, err := lib.ReadPerson("2297-78"); err == nil {
		t.Error("expected error reading an amendment as a person gazette")
	}
	_, err = lib.ReadAmendment("9999-99")
	if !errors.Is(err, gazette.ErrDocumentNotFound) || !errors.Is(err, ErrGazetteNotFound) {
		t.Errorf("expected not-found errors, got %v", err)
	}

	source, err := lib.LoadSource("2289-43")
	if err != nil || string(source) != testInitial {
		t.Errorf("LoadSource returned %q, %v", source, err)
	}
}

func TestListBetween(t *testing.T) {
	lib := newTestLibrary(t)
	mustAdd(t, lib, "2297-78", testAmendment, "2022-09-16")
	mustAdd(t, lib, "2289-43", testInitial, "2022-07-22")
	mustAdd(t, lib, "2301-12", testPerson, "2022-10-01")
	mustAdd(t, lib, "2305-01", testAmendment, "2022-11-05")

	testCases := []struct {
		name string
		kind gazette.Kind
		from string
		to   string
		want []string
	}{
		{"all mindep", gazette.KindMinDep, "2022-01-01", "2022-12-31", []string{"2289-43", "2297-78", "2305-01"}},
		{"inclusive bounds", gazette.KindMinDep, "2022-07-22", "2022-09-16", []string{"2289-43", "2297-78"}},
		{"person only", gazette.KindPerson, "2022-01-01", "2022-12-31", []string{"2301-12"}},
		{"any kind", "", "2022-09-01", "2022-10-31", []string{"2297-78", "2301-12"}},
		{"empty range", gazette.KindMinDep, "2023-01-01", "2023-12-31", []string{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			entries, err := lib.ListBetween(testCase.kind, testCase.from, testCase.to)
			if err != nil {
				t.Fatalf("ListBetween failed: %v", err)
			}
			if len(entries) != len(testCase.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(testCase.want))
			}
			for i, entry := range entries {
				if entry.Number != testCase.want[i] {
					t.Errorf("entry %d = %s, want %s", i, entry.Number, testCase.want[i])
				}
			}
		})
	}

	if _, err := lib.ListBetween(gazette.KindMinDep, "yesterday", "2022-12-31"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestSaveAndLoadReview(t *testing.T) {
	lib := newTestLibrary(t)
	mustAdd(t, lib, "2297-78", testAmendment, "2022-09-16")

	review, err := lib.LoadReview("2297-78")
	if err != nil || review != nil {
		t.Fatalf("expected no review yet, got %+v, %v", review, err)
	}

	reviewed := []map[string]string{{"type": "ADD", "department": "Department of Excise"}}
	saved, err := lib.SaveReview("2297-78", reviewed)
	if err != nil {
		t.Fatalf("SaveReview failed: %v", err)
	}
	if saved.ID == "" || saved.Kind != gazette.KindMinDep {
		t.Errorf("unexpected review: %+v", saved)
	}

	loaded, err := lib.LoadReview("2297-78")
	if err != nil {
		t.Fatalf("LoadReview failed: %v", err)
	}
	var decoded []map[string]string
	if err := json.Unmarshal(loaded.Transactions, &decoded); err != nil {
		t.Fatalf("review transactions did not decode: %v", err)
	}
	if loaded.ID != saved.ID || decoded[0]["department"] != "Department of Excise" {
		t.Errorf("unexpected loaded review: %+v", loaded)
	}

	entry, _ := lib.Info("2297-78")
	if entry.Status != StatusReviewed {
		t.Errorf("status = %s, want reviewed", entry.Status)
	}

	if _, err := lib.SaveReview("9999-99", reviewed); !errors.Is(err, ErrGazetteNotFound) {
		t.Errorf("expected ErrGazetteNotFound, got %v", err)
	}
}

func TestWarningAndCommit(t *testing.T) {
	lib := newTestLibrary(t)
	mustAdd(t, lib, "2297-78", testAmendment, "2022-09-16")

	if err := lib.SetWarning("2297-78", true); err != nil {
		t.Fatalf("SetWarning failed: %v", err)
	}
	if err := lib.MarkCommitted("2297-78"); err != nil {
		t.Fatalf("MarkCommitted failed: %v", err)
	}

	entry, _ := lib.Info("2297-78")
	if !entry.Warning || entry.Status != StatusCommitted || entry.CommittedAt == nil {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if err := lib.SetWarning("9999-99", true); !errors.Is(err, ErrGazetteNotFound) {
		t.Errorf("expected ErrGazetteNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	lib := newTestLibrary(t)
	mustAdd(t, lib, "2289-43", testInitial, "2022-07-22")
	mustAdd(t, lib, "2297-78", testAmendment, "2022-09-16")
	mustAdd(t, lib, "2301-12", testPerson, "2022-10-01")
	if err := lib.SetWarning("2301-12", true); err != nil {
		t.Fatal(err)
	}

	libraryStats := lib.Stats()
	if libraryStats.TotalGazettes != 3 || libraryStats.Warnings != 1 {
		t.Errorf("unexpected totals: %+v", libraryStats)
	}
	if libraryStats.ByKind["mindep"] != 2 || libraryStats.ByKind["person"] != 1 {
		t.Errorf("unexpected kind counts: %v", libraryStats.ByKind)
	}
	if libraryStats.ByStatus["ready"] != 3 {
		t.Errorf("unexpected status counts: %v", libraryStats.ByStatus)
	}
}

func TestPersistenceAcrossOpenClose(t *testing.T) {
	libraryPath := filepath.Join(t.TempDir(), "library")
	lib, err := Init(libraryPath)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	mustAdd(t, lib, "2297-78", testAmendment, "2022-09-16")
	if _, err := lib.SaveReview("2297-78", []string{"reviewed"}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(libraryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	entry, err := reopened.Info("2297-78")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if entry.Status != StatusReviewed || entry.Date != "2022-09-16" {
		t.Errorf("unexpected entry after reopen: %+v", entry)
	}
	if review, err := reopened.LoadReview("2297-78"); err != nil || review == nil {
		t.Errorf("review lost across reopen: %v", err)
	}
}

func mustAdd(t *testing.T, lib *Library, number, document, date string) {
	t.Helper()
	if _, err := lib.AddGazette(number, []byte(document), AddOptions{Date: date}); err != nil {
		t.Fatalf("AddGazette(%s) failed: %v", number, err)
	}
}

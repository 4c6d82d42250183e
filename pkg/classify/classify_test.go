package classify

import (
	"reflect"
	"testing"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/types"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name    string
		added   []types.DepartmentGroup
		removed []types.ResolvedRemoval
		want    []types.Transaction
	}{
		{
			name: "same name on both sides is a move",
			added: []types.DepartmentGroup{
				{Ministry: "Ministry A", Departments: []types.DepartmentChange{{Name: "Department X"}}},
			},
			removed: []types.ResolvedRemoval{{Ministry: "Ministry B", DepartmentName: "Department X"}},
			want: []types.Transaction{
				{Type: types.TransactionMove, Department: "Department X", FromMinistry: "Ministry B", ToMinistry: "Ministry A"},
			},
		},
		{
			name: "move keeps added casing and position",
			added: []types.DepartmentGroup{
				{Ministry: "Ministry A", Departments: []types.DepartmentChange{{Name: "  Department of ICT ", Position: types.IntPtr(4)}}},
			},
			removed: []types.ResolvedRemoval{{Ministry: "Ministry B", DepartmentName: "department of ict"}},
			want: []types.Transaction{
				{Type: types.TransactionMove, Department: "Department of ICT", FromMinistry: "Ministry B", ToMinistry: "Ministry A", Position: types.IntPtr(4)},
			},
		},
		{
			name: "add only",
			added: []types.DepartmentGroup{
				{Ministry: "Ministry A", Departments: []types.DepartmentChange{{Name: "Department Y", Position: types.IntPtr(2)}}},
			},
			want: []types.Transaction{
				{Type: types.TransactionAdd, Department: "Department Y", ToMinistry: "Ministry A", Position: types.IntPtr(2)},
			},
		},
		{
			name:    "terminate only is title cased",
			removed: []types.ResolvedRemoval{{Ministry: "Ministry B", DepartmentName: "DEPARTMENT OF  lotteries"}},
			want: []types.Transaction{
				{Type: types.TransactionTerminate, Department: "Department Of Lotteries", FromMinistry: "Ministry B"},
			},
		},
		{
			name: "moves sorted, then adds and terminates in first seen order",
			added: []types.DepartmentGroup{
				{Ministry: "Ministry A", Departments: []types.DepartmentChange{{Name: "Zeta Board"}, {Name: "New Office"}}},
				{Ministry: "Ministry C", Departments: []types.DepartmentChange{{Name: "Alpha Bureau"}, {Name: "Another Office"}}},
			},
			removed: []types.ResolvedRemoval{
				{Ministry: "Ministry B", DepartmentName: "Old Office"},
				{Ministry: "Ministry B", DepartmentName: "Zeta Board"},
				{Ministry: "Ministry D", DepartmentName: "Alpha Bureau"},
				{Ministry: "Ministry D", DepartmentName: "Closed Unit"},
			},
			want: []types.Transaction{
				{Type: types.TransactionMove, Department: "Alpha Bureau", FromMinistry: "Ministry D", ToMinistry: "Ministry C"},
				{Type: types.TransactionMove, Department: "Zeta Board", FromMinistry: "Ministry B", ToMinistry: "Ministry A"},
				{Type: types.TransactionAdd, Department: "New Office", ToMinistry: "Ministry A"},
				{Type: types.TransactionAdd, Department: "Another Office", ToMinistry: "Ministry C"},
				{Type: types.TransactionTerminate, Department: "Old Office", FromMinistry: "Ministry B"},
				{Type: types.TransactionTerminate, Department: "Closed Unit", FromMinistry: "Ministry D"},
			},
		},
		{
			name: "empty inputs",
			want: []types.Transaction{},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, _ := Classify(testCase.added, testCase.removed)
			if !reflect.DeepEqual(got, testCase.want) {
				t.Errorf("Classify() =\n%v\nwant\n%v", got, testCase.want)
			}
		})
	}
}

func TestClassifyLastOccurrenceWins(t *testing.T) {
	added := []types.DepartmentGroup{
		{Ministry: "Ministry A", Departments: []types.DepartmentChange{{Name: "Department X"}}},
		{Ministry: "Ministry C", Departments: []types.DepartmentChange{{Name: "department x", Position: types.IntPtr(1)}}},
	}
	removed := []types.ResolvedRemoval{
		{Ministry: "Ministry B", DepartmentName: "Department X"},
		{Ministry: "Ministry D", DepartmentName: "Department X"},
	}

	transactions, diagnostics := Classify(added, removed)

	want := []types.Transaction{
		{Type: types.TransactionMove, Department: "department x", FromMinistry: "Ministry D", ToMinistry: "Ministry C", Position: types.IntPtr(1)},
	}
	if !reflect.DeepEqual(transactions, want) {
		t.Errorf("Classify() = %v, want %v", transactions, want)
	}
	if got := diagnostics.Count(diagnostic.DuplicateDepartment); got != 2 {
		t.Errorf("duplicate diagnostics = %d, want 2", got)
	}
}

func TestClassifyPartitionsNames(t *testing.T) {
	added := []types.DepartmentGroup{
		{Ministry: "M1", Departments: []types.DepartmentChange{{Name: "A"}, {Name: "B"}, {Name: "C"}}},
		{Ministry: "M2", Departments: []types.DepartmentChange{{Name: "D"}}},
	}
	removed := []types.ResolvedRemoval{
		{Ministry: "M3", DepartmentName: "b"},
		{Ministry: "M3", DepartmentName: "D"},
		{Ministry: "M4", DepartmentName: "E"},
	}

	transactions, _ := Classify(added, removed)

	seen := make(map[string]types.TransactionType)
	for _, transaction := range transactions {
		key := NormalizeName(transaction.Department)
		if previous, ok := seen[key]; ok {
			t.Fatalf("%q emitted as both %s and %s", key, previous, transaction.Type)
		}
		seen[key] = transaction.Type
	}

	want := map[string]types.TransactionType{
		"a": types.TransactionAdd,
		"b": types.TransactionMove,
		"c": types.TransactionAdd,
		"d": types.TransactionMove,
		"e": types.TransactionTerminate,
	}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("partition = %v, want %v", seen, want)
	}
}

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"Department of Trade", "department of trade"},
		{"  Department   of\tTrade ", "department of trade"},
		{"", ""},
	}

	for _, testCase := range testCases {
		if got := NormalizeName(testCase.input); got != testCase.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", testCase.input, got, testCase.want)
		}
	}
}

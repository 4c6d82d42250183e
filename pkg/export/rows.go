// Package export renders reviewed transactions as the relationship rows a
// downstream graph loader ingests, and writes them as add.csv,
// terminate.csv and move.csv.
package export

import (
	"fmt"
	"strings"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/types"
)

// Relationship and node type names used in rows.
const (
	RelMinister   = "AS_MINISTER"
	RelDepartment = "AS_DEPARTMENT"
	RelAppointed  = "AS_APPOINTED"

	TypeGovernment = "government"
	TypeMinister   = "minister"
	TypeDepartment = "department"
	TypePerson     = "person"
)

// Relation is one ADD or TERMINATE row: child attached to or detached from
// parent.
type Relation struct {
	TransactionID string `json:"transaction_id"`
	Parent        string `json:"parent"`
	ParentType    string `json:"parent_type"`
	Child         string `json:"child"`
	ChildType     string `json:"child_type"`
	RelType       string `json:"rel_type"`
	Date          string `json:"date"`
}

// Movement is one MOVE row. ParentType and ChildType are only written for
// person gazettes.
type Movement struct {
	TransactionID string `json:"transaction_id"`
	OldParent     string `json:"old_parent"`
	NewParent     string `json:"new_parent"`
	ParentType    string `json:"parent_type,omitempty"`
	Child         string `json:"child"`
	ChildType     string `json:"child_type,omitempty"`
	RelType       string `json:"rel_type"`
	Date          string `json:"date"`
}

// Rows is one gazette's rendered output. Transaction ids share a single
// counter across all three groups, starting at 1.
type Rows struct {
	Kind          gazette.Kind `json:"kind"`
	GazetteNumber string       `json:"gazette_number"`
	Date          string       `json:"date"`
	Adds          []Relation   `json:"adds"`
	Terminates    []Relation   `json:"terminates"`
	Moves         []Movement   `json:"moves"`
}

// Count returns the total number of rows.
func (rows *Rows) Count() int {
	return len(rows.Adds) + len(rows.Terminates) + len(rows.Moves)
}

// idCounter hands out "{gazette}_tr_{NN}" ids in emission order.
type idCounter struct {
	gazetteNumber string
	next          int
}

func (counter *idCounter) take() string {
	counter.next++
	return TransactionID(counter.gazetteNumber, counter.next)
}

// TransactionID formats the id of the n-th row of a gazette.
func TransactionID(gazetteNumber string, n int) string {
	return fmt.Sprintf("%s_tr_%02d", gazetteNumber, n)
}

// InitialRows renders the founding structure of government: one AS_MINISTER
// row per ministry under government, then one AS_DEPARTMENT row per
// department.
func InitialRows(gazetteNumber, date, government string, listings []gazette.MinistryListing) *Rows {
	rows := newRows(gazette.KindMinDep, gazetteNumber, date)
	counter := &idCounter{gazetteNumber: gazetteNumber}

	for _, listing := range listings {
		rows.Adds = append(rows.Adds, Relation{
			TransactionID: counter.take(),
			Parent:        government,
			ParentType:    TypeGovernment,
			Child:         listing.Name,
			ChildType:     TypeMinister,
			RelType:       RelMinister,
			Date:          date,
		})
	}
	for _, listing := range listings {
		for _, department := range listing.Departments {
			rows.Adds = append(rows.Adds, departmentRelation(counter.take(), listing.Name, department, date))
		}
	}
	return rows
}

// DepartmentRows renders department transactions in the order given.
func DepartmentRows(gazetteNumber, date string, transactions []types.Transaction) *Rows {
	rows := newRows(gazette.KindMinDep, gazetteNumber, date)
	counter := &idCounter{gazetteNumber: gazetteNumber}

	for _, transaction := range transactions {
		switch transaction.Type {
		case types.TransactionAdd:
			rows.Adds = append(rows.Adds, departmentRelation(counter.take(), transaction.ToMinistry, transaction.Department, date))
		case types.TransactionTerminate:
			rows.Terminates = append(rows.Terminates, departmentRelation(counter.take(), transaction.FromMinistry, transaction.Department, date))
		case types.TransactionMove:
			rows.Moves = append(rows.Moves, Movement{
				TransactionID: counter.take(),
				OldParent:     transaction.FromMinistry,
				NewParent:     transaction.ToMinistry,
				Child:         transaction.Department,
				RelType:       RelDepartment,
				Date:          date,
			})
		}
	}
	return rows
}

// PersonRows renders person transactions: adds, terminates, moves, then each
// rename as a terminate from the old ministry followed by an add to the new
// one. A transaction without its own date uses the gazette date.
func PersonRows(gazetteNumber, date string, transactions types.PersonTransactions) *Rows {
	rows := newRows(gazette.KindPerson, gazetteNumber, date)
	counter := &idCounter{gazetteNumber: gazetteNumber}

	for _, add := range transactions.Adds {
		rows.Adds = append(rows.Adds, personRelation(counter.take(), add.Ministry, PositionType(add.Position), add.Person, dateOr(add.Date, date)))
	}
	for _, terminate := range transactions.Terminates {
		rows.Terminates = append(rows.Terminates, personRelation(counter.take(), terminate.Ministry, PositionType(terminate.Position), terminate.Person, dateOr(terminate.Date, date)))
	}
	for _, move := range transactions.Moves {
		rows.Moves = append(rows.Moves, Movement{
			TransactionID: counter.take(),
			OldParent:     move.FromMinistry,
			NewParent:     move.ToMinistry,
			ParentType:    PositionType(move.ToPosition),
			Child:         move.Person,
			ChildType:     TypePerson,
			RelType:       RelAppointed,
			Date:          dateOr(move.Date, date),
		})
	}
	for _, rename := range transactions.Renames {
		renameDate := dateOr(rename.Date, date)
		rows.Terminates = append(rows.Terminates, personRelation(counter.take(), rename.FromMinistry, TypeMinister, rename.Person, renameDate))
		rows.Adds = append(rows.Adds, personRelation(counter.take(), rename.ToMinistry, TypeMinister, rename.Person, renameDate))
	}
	return rows
}

// PositionType turns a portfolio title into a node type: "State Minister"
// becomes "state_minister".
func PositionType(position string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(position)), " ", "_")
}

func newRows(kind gazette.Kind, gazetteNumber, date string) *Rows {
	return &Rows{
		Kind:          kind,
		GazetteNumber: gazetteNumber,
		Date:          date,
		Adds:          []Relation{},
		Terminates:    []Relation{},
		Moves:         []Movement{},
	}
}

func departmentRelation(id, ministry, department, date string) Relation {
	return Relation{
		TransactionID: id,
		Parent:        ministry,
		ParentType:    TypeMinister,
		Child:         department,
		ChildType:     TypeDepartment,
		RelType:       RelDepartment,
		Date:          date,
	}
}

func personRelation(id, ministry, parentType, person, date string) Relation {
	return Relation{
		TransactionID: id,
		Parent:        ministry,
		ParentType:    parentType,
		Child:         person,
		ChildType:     TypePerson,
		RelType:       RelAppointed,
		Date:          date,
	}
}

func dateOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

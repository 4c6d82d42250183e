// Package types defines the structural change model shared by the gazette
// parser, resolver, classifiers and exporters: department changes parsed from
// Column II, their resolved removals, and the transactions inferred from them.
package types

import "fmt"

// TransactionType classifies an inferred structural change.
type TransactionType string

const (
	// TransactionAdd attaches a department (or person) to a ministry.
	TransactionAdd TransactionType = "ADD"
	// TransactionMove detaches from one ministry and attaches to another.
	TransactionMove TransactionType = "MOVE"
	// TransactionTerminate detaches without a new parent.
	TransactionTerminate TransactionType = "TERMINATE"
	// TransactionRename keeps the holder but changes the portfolio title.
	// Only reviewers produce renames; the builders never infer them.
	TransactionRename TransactionType = "RENAME"
)

// Valid reports whether the type is one of the known transaction types.
func (transactionType TransactionType) Valid() bool {
	switch transactionType {
	case TransactionAdd, TransactionMove, TransactionTerminate, TransactionRename:
		return true
	}
	return false
}

// DepartmentChange is a department addition parsed from a Column II detail
// line. Position is the optional 1-based insertion hint taken from an
// "item N —" prefix.
type DepartmentChange struct {
	Name     string `json:"name"`
	Position *int   `json:"position,omitempty"`
}

// DepartmentGroup collects the additions listed under one ministry.
type DepartmentGroup struct {
	Ministry    string             `json:"ministry"`
	Departments []DepartmentChange `json:"departments"`
}

// ResolvedRemoval is an omission after its position has been turned into a
// department name. The position itself is not retained.
type ResolvedRemoval struct {
	Ministry       string `json:"ministry"`
	DepartmentName string `json:"department"`
}

// Transaction is one inferred department-level change. The populated fields
// depend on Type: ADD uses ToMinistry, TERMINATE uses FromMinistry and MOVE
// uses both. Position is only meaningful for ADD and MOVE.
type Transaction struct {
	Type         TransactionType `json:"type"`
	Department   string          `json:"department"`
	FromMinistry string          `json:"from_ministry,omitempty"`
	ToMinistry   string          `json:"to_ministry,omitempty"`
	Position     *int            `json:"position,omitempty"`
}

// NewAddTransaction builds an ADD of department into toMinistry.
func NewAddTransaction(department, toMinistry string, position *int) Transaction {
	return Transaction{
		Type:       TransactionAdd,
		Department: department,
		ToMinistry: toMinistry,
		Position:   copyPosition(position),
	}
}

// NewMoveTransaction builds a MOVE of department between two ministries.
func NewMoveTransaction(department, fromMinistry, toMinistry string, position *int) Transaction {
	return Transaction{
		Type:         TransactionMove,
		Department:   department,
		FromMinistry: fromMinistry,
		ToMinistry:   toMinistry,
		Position:     copyPosition(position),
	}
}

// NewTerminateTransaction builds a TERMINATE of department from fromMinistry.
func NewTerminateTransaction(department, fromMinistry string) Transaction {
	return Transaction{
		Type:         TransactionTerminate,
		Department:   department,
		FromMinistry: fromMinistry,
	}
}

// Validate checks that the fields required by the transaction type are set.
// Reviewed transactions submitted by a human pass through here before they
// are applied to state.
func (transaction Transaction) Validate() error {
	if transaction.Department == "" {
		return fmt.Errorf("%s transaction has no department", transaction.Type)
	}
	switch transaction.Type {
	case TransactionAdd:
		if transaction.ToMinistry == "" {
			return fmt.Errorf("ADD of %q has no to_ministry", transaction.Department)
		}
	case TransactionMove:
		if transaction.FromMinistry == "" || transaction.ToMinistry == "" {
			return fmt.Errorf("MOVE of %q needs from_ministry and to_ministry", transaction.Department)
		}
	case TransactionTerminate:
		if transaction.FromMinistry == "" {
			return fmt.Errorf("TERMINATE of %q has no from_ministry", transaction.Department)
		}
	default:
		return fmt.Errorf("unsupported department transaction type %q", transaction.Type)
	}
	if transaction.Position != nil && *transaction.Position < 0 {
		return fmt.Errorf("%s of %q has negative position %d", transaction.Type, transaction.Department, *transaction.Position)
	}
	return nil
}

// String renders a one-line human readable description.
func (transaction Transaction) String() string {
	switch transaction.Type {
	case TransactionAdd:
		return fmt.Sprintf("ADD %s -> %s%s", transaction.Department, transaction.ToMinistry, positionSuffix(transaction.Position))
	case TransactionMove:
		return fmt.Sprintf("MOVE %s: %s -> %s%s", transaction.Department, transaction.FromMinistry, transaction.ToMinistry, positionSuffix(transaction.Position))
	case TransactionTerminate:
		return fmt.Sprintf("TERMINATE %s <- %s", transaction.Department, transaction.FromMinistry)
	}
	return fmt.Sprintf("%s %s", transaction.Type, transaction.Department)
}

// IntPtr returns a pointer to value, for optional positions.
func IntPtr(value int) *int {
	return &value
}

func copyPosition(position *int) *int {
	if position == nil {
		return nil
	}
	return IntPtr(*position)
}

func positionSuffix(position *int) string {
	if position == nil {
		return ""
	}
	return fmt.Sprintf(" (item %d)", *position)
}

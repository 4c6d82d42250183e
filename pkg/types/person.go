package types

import "fmt"

// Portfolio is one ministerial responsibility held by a person in the
// current person state.
type Portfolio struct {
	Ministry string `json:"ministry"`
	Position string `json:"position"`
	Person   string `json:"person"`
}

// MatchCandidate is an existing portfolio whose ministry name is similar to
// a newly gazetted one. Score is on a 0-100 scale.
type MatchCandidate struct {
	ExistingMinistry string  `json:"existing_ministry"`
	ExistingPosition string  `json:"existing_position"`
	ExistingPerson   string  `json:"existing_person"`
	Score            float64 `json:"score"`
}

// PersonTransaction is one inferred person-level change.
//
//   - ADD uses Ministry and Position for the new portfolio.
//   - TERMINATE uses Ministry and Position for the portfolio being vacated.
//   - MOVE uses FromMinistry/FromPosition and ToMinistry/ToPosition.
//   - RENAME uses FromMinistry and ToMinistry; Position is kept.
//
// SuggestedContinuations is advisory and never populated for TERMINATE.
type PersonTransaction struct {
	Type                   TransactionType  `json:"type"`
	Person                 string           `json:"person"`
	Ministry               string           `json:"ministry,omitempty"`
	Position               string           `json:"position,omitempty"`
	FromMinistry           string           `json:"from_ministry,omitempty"`
	FromPosition           string           `json:"from_position,omitempty"`
	ToMinistry             string           `json:"to_ministry,omitempty"`
	ToPosition             string           `json:"to_position,omitempty"`
	Date                   string           `json:"date,omitempty"`
	SuggestedContinuations []MatchCandidate `json:"suggested_continuations,omitempty"`
}

// Validate checks that the fields required by the transaction type are set.
func (transaction PersonTransaction) Validate() error {
	if transaction.Person == "" {
		return fmt.Errorf("%s person transaction has no person", transaction.Type)
	}
	switch transaction.Type {
	case TransactionAdd, TransactionTerminate:
		if transaction.Ministry == "" || transaction.Position == "" {
			return fmt.Errorf("%s of %q needs ministry and position", transaction.Type, transaction.Person)
		}
	case TransactionMove:
		if transaction.FromMinistry == "" || transaction.ToMinistry == "" {
			return fmt.Errorf("MOVE of %q needs from_ministry and to_ministry", transaction.Person)
		}
		if transaction.FromPosition == "" || transaction.ToPosition == "" {
			return fmt.Errorf("MOVE of %q needs from_position and to_position", transaction.Person)
		}
	case TransactionRename:
		if transaction.FromMinistry == "" || transaction.ToMinistry == "" {
			return fmt.Errorf("RENAME for %q needs from_ministry and to_ministry", transaction.Person)
		}
	default:
		return fmt.Errorf("unsupported person transaction type %q", transaction.Type)
	}
	return nil
}

// PersonTransactions groups one gazette's person transactions by type, the
// layout reviewers edit and submit back.
type PersonTransactions struct {
	Moves      []PersonTransaction `json:"moves"`
	Adds       []PersonTransaction `json:"adds"`
	Terminates []PersonTransaction `json:"terminates"`
	Renames    []PersonTransaction `json:"renames,omitempty"`
}

// Count returns the total number of transactions across all groups.
func (transactions PersonTransactions) Count() int {
	return len(transactions.Moves) + len(transactions.Adds) + len(transactions.Terminates) + len(transactions.Renames)
}

// Validate validates every transaction and checks it sits in the group that
// matches its type.
func (transactions PersonTransactions) Validate() error {
	groups := []struct {
		want  TransactionType
		items []PersonTransaction
	}{
		{TransactionMove, transactions.Moves},
		{TransactionAdd, transactions.Adds},
		{TransactionTerminate, transactions.Terminates},
		{TransactionRename, transactions.Renames},
	}
	for _, group := range groups {
		for i, transaction := range group.items {
			if transaction.Type == "" {
				transaction.Type = group.want
			}
			if transaction.Type != group.want {
				return fmt.Errorf("%s transaction %d listed under %s", transaction.Type, i, group.want)
			}
			if err := transaction.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Package classify reconciles the departments a gazette adds with the ones it
// removes into ADD, MOVE and TERMINATE transactions.
package classify

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/types"
)

// addedDepartment is one entry of the added side, keyed by normalized name.
type addedDepartment struct {
	ministry     string
	originalName string
	position     *int
}

// reconciliation holds both sides keyed by normalized name, with key order
// recorded as first seen.
type reconciliation struct {
	folder cases.Caser

	added      map[string]addedDepartment
	addedOrder []string

	removed      map[string]string
	removedOrder []string

	diagnostics diagnostic.List
}

// Classify pairs added and removed departments by normalized name. A name on
// both sides becomes a MOVE from the removing ministry to the adding one.
// Names only added become ADDs, names only removed become TERMINATEs. When a
// normalized name occurs more than once on one side the last occurrence wins
// and a DuplicateDepartment diagnostic records the one that was dropped.
//
// Output is MOVEs in normalized-name order, then ADDs, then TERMINATEs, each
// in first-seen order. Empty inputs give an empty, non-nil slice.
func Classify(added []types.DepartmentGroup, removed []types.ResolvedRemoval) ([]types.Transaction, diagnostic.List) {
	work := &reconciliation{
		folder:  cases.Fold(),
		added:   make(map[string]addedDepartment),
		removed: make(map[string]string),
	}

	for _, group := range added {
		for _, change := range group.Departments {
			work.addAdded(group.Ministry, change)
		}
	}
	for _, removal := range removed {
		work.addRemoved(removal)
	}

	transactions := make([]types.Transaction, 0, len(work.added)+len(work.removed))
	transactions = append(transactions, work.moves()...)

	for _, key := range work.addedOrder {
		if _, matched := work.removed[key]; matched {
			continue
		}
		department := work.added[key]
		transactions = append(transactions, types.NewAddTransaction(department.originalName, department.ministry, department.position))
	}

	titler := cases.Title(language.English)
	for _, key := range work.removedOrder {
		if _, matched := work.added[key]; matched {
			continue
		}
		transactions = append(transactions, types.NewTerminateTransaction(titler.String(key), work.removed[key]))
	}

	return transactions, work.diagnostics
}

// NormalizeName returns the comparison key for a department name: inner
// whitespace collapsed, trimmed and case-folded.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

func (work *reconciliation) normalize(name string) string {
	return work.folder.String(strings.Join(strings.Fields(name), " "))
}

func (work *reconciliation) addAdded(ministry string, change types.DepartmentChange) {
	key := work.normalize(change.Name)
	if key == "" {
		return
	}

	if previous, exists := work.added[key]; exists {
		work.diagnostics.Add(diagnostic.Diagnostic{
			Kind:     diagnostic.DuplicateDepartment,
			Ministry: previous.ministry,
			Detail:   previous.originalName,
			Message:  "added more than once, keeping the addition under " + ministry,
		})
	} else {
		work.addedOrder = append(work.addedOrder, key)
	}

	work.added[key] = addedDepartment{
		ministry:     ministry,
		originalName: strings.TrimSpace(change.Name),
		position:     change.Position,
	}
}

func (work *reconciliation) addRemoved(removal types.ResolvedRemoval) {
	key := work.normalize(removal.DepartmentName)
	if key == "" {
		return
	}

	if previousMinistry, exists := work.removed[key]; exists {
		if previousMinistry != removal.Ministry {
			work.diagnostics.Add(diagnostic.Diagnostic{
				Kind:     diagnostic.DuplicateDepartment,
				Ministry: previousMinistry,
				Detail:   removal.DepartmentName,
				Message:  "removed more than once, keeping the removal from " + removal.Ministry,
			})
		}
	} else {
		work.removedOrder = append(work.removedOrder, key)
	}

	work.removed[key] = removal.Ministry
}

// moves emits one MOVE per name on both sides, sorted by normalized name.
func (work *reconciliation) moves() []types.Transaction {
	var matched []string
	for key := range work.added {
		if _, ok := work.removed[key]; ok {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)

	moves := make([]types.Transaction, 0, len(matched))
	for _, key := range matched {
		department := work.added[key]
		moves = append(moves, types.NewMoveTransaction(department.originalName, work.removed[key], department.ministry, department.position))
	}
	return moves
}

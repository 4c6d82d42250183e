// Package resolve turns item-number omissions into department names by
// looking them up in a frozen prior-state snapshot.
package resolve

import (
	"fmt"

	"github.com/coolbeans/gazette/pkg/amend"
	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/types"
)

// DepartmentLookup is the read-only view of a prior snapshot the resolver
// needs. The returned slice must not alias state that can change while a
// resolution is running; state.Snapshot satisfies this.
type DepartmentLookup interface {
	Departments(ministry string) ([]string, bool)
}

// Resolve maps each omitted position to the department found at that
// 1-based index under the same ministry in snapshot. A ministry missing from
// the snapshot skips all its positions with one UnknownMinistry diagnostic;
// a position with no department skips just that position with an
// UnresolvedPosition diagnostic. Repeated positions within a ministry resolve
// once. Named omissions in groups are ignored here; see
// amend.Extraction.NamedRemovals.
//
// Output order follows the input: groups in order, positions in the order
// first listed.
func Resolve(groups []amend.OmittedGroup, snapshot DepartmentLookup) ([]types.ResolvedRemoval, diagnostic.List) {
	removals := []types.ResolvedRemoval{}
	var diagnostics diagnostic.List

	for _, group := range groups {
		if len(group.Positions) == 0 {
			continue
		}

		departments, ok := lookup(snapshot, group.Ministry)
		if !ok {
			diagnostics.Addf(diagnostic.UnknownMinistry, group.Ministry,
				"ministry not in prior snapshot, %d omitted item(s) skipped", len(group.Positions))
			continue
		}

		seen := make(map[int]bool, len(group.Positions))
		for _, position := range group.Positions {
			if seen[position] {
				continue
			}
			seen[position] = true

			if position < 1 || position > len(departments) {
				diagnostics.Add(diagnostic.Diagnostic{
					Kind:     diagnostic.UnresolvedPosition,
					Ministry: group.Ministry,
					Position: position,
					Message:  unresolvedMessage(position, len(departments)),
				})
				continue
			}

			removals = append(removals, types.ResolvedRemoval{
				Ministry:       group.Ministry,
				DepartmentName: departments[position-1],
			})
		}
	}

	return removals, diagnostics
}

func lookup(snapshot DepartmentLookup, ministry string) ([]string, bool) {
	if snapshot == nil {
		return nil, false
	}
	return snapshot.Departments(ministry)
}

func unresolvedMessage(position, count int) string {
	if count == 0 {
		return fmt.Sprintf("no department at item %d, ministry has no departments", position)
	}
	return fmt.Sprintf("no department at item %d, ministry has %d", position, count)
}

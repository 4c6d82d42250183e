package amend

import (
	"fmt"
	"strings"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/types"
)

// Extraction is the per-ministry result of parsing a gazette's Column II
// entries. Ministries appear in the order they were first seen.
type Extraction struct {
	Added       []types.DepartmentGroup `json:"added"`
	Omitted     []OmittedGroup          `json:"omitted"`
	Diagnostics diagnostic.List         `json:"diagnostics,omitempty"`
}

// Extract parses Column II entries into additions and omissions. Entries are
// expected to be pre-filtered to Column II. An entry without a ministry name
// is skipped; a detail line that fits no shape is skipped. Both produce
// diagnostics and never stop extraction.
func (recognizer *Recognizer) Extract(entries []gazette.Entry) *Extraction {
	extraction := &Extraction{
		Added:   []types.DepartmentGroup{},
		Omitted: []OmittedGroup{},
	}
	addedIndex := make(map[string]int)
	omittedIndex := make(map[string]int)

	for entryNumber, entry := range entries {
		ministry := normalizeDetailText(entry.MinistryName)
		if ministry == "" {
			extraction.Diagnostics.Add(diagnostic.Diagnostic{
				Kind:    diagnostic.MissingMinistryName,
				Detail:  strings.Join(entry.Details, " | "),
				Message: fmt.Sprintf("entry %d has no ministry name", entryNumber+1),
			})
			continue
		}

		switch entry.Action {
		case gazette.ActionAdd:
			for _, line := range entry.Details {
				instruction, err := recognizer.ParseInsertLine(line)
				if err != nil {
					extraction.Diagnostics.Add(unparsable(ministry, line, err))
					continue
				}
				index, ok := addedIndex[ministry]
				if !ok {
					index = len(extraction.Added)
					addedIndex[ministry] = index
					extraction.Added = append(extraction.Added, types.DepartmentGroup{Ministry: ministry})
				}
				extraction.Added[index].Departments = append(extraction.Added[index].Departments, instruction.Departments...)
			}

		case gazette.ActionOmit:
			for _, line := range entry.Details {
				instruction, err := recognizer.ParseOmitLine(line)
				if err != nil {
					extraction.Diagnostics.Add(unparsable(ministry, line, err))
					continue
				}
				index, ok := omittedIndex[ministry]
				if !ok {
					index = len(extraction.Omitted)
					omittedIndex[ministry] = index
					extraction.Omitted = append(extraction.Omitted, OmittedGroup{Ministry: ministry})
				}
				group := &extraction.Omitted[index]
				group.Positions = append(group.Positions, instruction.Positions...)
				group.Names = append(group.Names, instruction.Names...)
			}

		default:
			extraction.Diagnostics.Add(diagnostic.Diagnostic{
				Kind:     diagnostic.UnparsableDetail,
				Ministry: ministry,
				Message:  fmt.Sprintf("entry has unknown action %q", entry.Action),
			})
		}
	}

	return extraction
}

// Count returns the number of parsed additions and omissions.
func (extraction *Extraction) Count() (added int, omitted int) {
	for _, group := range extraction.Added {
		added += len(group.Departments)
	}
	for _, group := range extraction.Omitted {
		omitted += len(group.Positions) + len(group.Names)
	}
	return added, omitted
}

// NamedRemovals returns the by-name omissions, which need no position
// resolution.
func (extraction *Extraction) NamedRemovals() []types.ResolvedRemoval {
	var removals []types.ResolvedRemoval
	for _, group := range extraction.Omitted {
		for _, name := range group.Names {
			removals = append(removals, types.ResolvedRemoval{Ministry: group.Ministry, DepartmentName: name})
		}
	}
	return removals
}

func unparsable(ministry, line string, err error) diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Kind:     diagnostic.UnparsableDetail,
		Ministry: ministry,
		Detail:   line,
		Message:  err.Error(),
	}
}

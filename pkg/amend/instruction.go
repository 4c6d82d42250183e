// Package amend parses the free-text detail lines of Column II amendment
// entries into structured instructions. Two line shapes are recognized:
//
//	Inserted: [item N —] Department name [after item M][, ...]
//	Omitted item(s) 2, 4 and 6          (positional)
//	Omitted: Department name[, ...]      (by name)
//
// Parsing is best effort per line. A line that fits no shape is reported as
// a diagnostic and the rest of the entry is still processed.
package amend

import (
	"errors"

	"github.com/coolbeans/gazette/pkg/types"
)

// ErrUnparsableDetail is wrapped by the line parsers when a detail line does
// not fit the expected shape.
var ErrUnparsableDetail = errors.New("unparsable detail line")

// InstructionKind tags the variant held by an Instruction.
type InstructionKind string

const (
	// InstructionInsert adds departments; Departments is populated.
	InstructionInsert InstructionKind = "insert"
	// InstructionOmitPositions removes departments by item number;
	// Positions is populated.
	InstructionOmitPositions InstructionKind = "omit_positions"
	// InstructionOmitNames removes departments by name; Names is populated.
	InstructionOmitNames InstructionKind = "omit_names"
)

// Instruction is the parsed form of one detail line.
type Instruction struct {
	Kind        InstructionKind          `json:"kind"`
	Departments []types.DepartmentChange `json:"departments,omitempty"`
	Positions   []int                    `json:"positions,omitempty"`
	Names       []string                 `json:"names,omitempty"`
	Text        string                   `json:"text"`
}

// OmittedGroup collects the omissions listed under one ministry. Positions
// still need resolving against a prior snapshot; Names are already final.
type OmittedGroup struct {
	Ministry  string   `json:"ministry"`
	Positions []int    `json:"positions,omitempty"`
	Names     []string `json:"names,omitempty"`
}

// HasPositions reports whether any omission in groups needs resolution.
func HasPositions(groups []OmittedGroup) bool {
	for _, group := range groups {
		if len(group.Positions) > 0 {
			return true
		}
	}
	return false
}

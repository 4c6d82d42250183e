// Package diagnostic records the non-fatal problems met while turning a
// gazette into transactions. A diagnostic always means "this item was left
// out of the result"; it never aborts the surrounding run.
package diagnostic

import (
	"fmt"
	"log/slog"
)

// Kind names the category of a diagnostic.
type Kind string

const (
	// UnparsableDetail marks a detail line that matched no known shape.
	UnparsableDetail Kind = "unparsable_detail"
	// MissingMinistryName marks a gazette entry without a ministry name.
	MissingMinistryName Kind = "missing_ministry_name"
	// UnknownMinistry marks an omission against a ministry absent from the
	// prior snapshot.
	UnknownMinistry Kind = "unknown_ministry"
	// UnresolvedPosition marks an omitted item number with no department at
	// that position in the prior snapshot.
	UnresolvedPosition Kind = "unresolved_position"
	// DuplicateDepartment marks a department name that occurs more than once
	// on one side of the reconciliation. The last occurrence is kept.
	DuplicateDepartment Kind = "duplicate_department"
	// ApplySkipped marks a reviewed transaction that could not be applied to
	// state, such as moving a department its source ministry no longer has.
	ApplySkipped Kind = "apply_skipped"
)

// Diagnostic describes one item that was skipped.
type Diagnostic struct {
	Kind     Kind   `json:"kind"`
	Ministry string `json:"ministry,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Position int    `json:"position,omitempty"`
	Message  string `json:"message"`
}

// String renders the diagnostic for terminal output.
func (diagnostic Diagnostic) String() string {
	if diagnostic.Ministry == "" {
		return fmt.Sprintf("[%s] %s", diagnostic.Kind, diagnostic.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", diagnostic.Kind, diagnostic.Ministry, diagnostic.Message)
}

// Log writes the diagnostic to logger at warn level.
func (diagnostic Diagnostic) Log(logger *slog.Logger) {
	attributes := []any{"kind", string(diagnostic.Kind)}
	if diagnostic.Ministry != "" {
		attributes = append(attributes, "ministry", diagnostic.Ministry)
	}
	if diagnostic.Detail != "" {
		attributes = append(attributes, "detail", diagnostic.Detail)
	}
	if diagnostic.Position != 0 {
		attributes = append(attributes, "position", diagnostic.Position)
	}
	logger.Warn(diagnostic.Message, attributes...)
}

// List accumulates diagnostics in the order they were found.
type List []Diagnostic

// Addf appends a diagnostic with a formatted message.
func (list *List) Addf(kind Kind, ministry string, format string, args ...any) {
	*list = append(*list, Diagnostic{
		Kind:     kind,
		Ministry: ministry,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Add appends a fully populated diagnostic.
func (list *List) Add(diagnostic Diagnostic) {
	*list = append(*list, diagnostic)
}

// Count returns how many diagnostics of kind were recorded.
func (list List) Count(kind Kind) int {
	count := 0
	for _, diagnostic := range list {
		if diagnostic.Kind == kind {
			count++
		}
	}
	return count
}

// LogAll writes every diagnostic to logger.
func (list List) LogAll(logger *slog.Logger) {
	for _, diagnostic := range list {
		diagnostic.Log(logger)
	}
}

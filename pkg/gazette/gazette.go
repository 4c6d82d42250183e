// Package gazette defines the structured records a gazette reader produces
// and decodes them from their JSON form. Three document kinds exist: the
// initial gazette that lists every ministry with its departments, amendment
// gazettes that add or omit Column II items, and person gazettes that
// appoint or remove office holders.
package gazette

import (
	"errors"
	"strings"
)

// ColumnII is the schedule column that carries department-level changes.
const ColumnII = "II"

// Action is the operation an amendment entry performs.
type Action string

const (
	// ActionAdd inserts items into a ministry's schedule.
	ActionAdd Action = "ADD"
	// ActionOmit removes items from a ministry's schedule.
	ActionOmit Action = "OMIT"
)

// Entry is one raw amendment unit: an action against one column of one
// ministry's schedule, with the free-text detail lines that describe it.
type Entry struct {
	MinistryName   string   `json:"ministry_name"`
	AffectedColumn string   `json:"affected_column"`
	Action         Action   `json:"action,omitempty"`
	Details        []string `json:"details"`
}

// AmendmentDocument is a decoded amendment gazette.
type AmendmentDocument struct {
	Number string  `json:"-"`
	Date   string  `json:"-"`
	Add    []Entry `json:"ADD"`
	Omit   []Entry `json:"OMIT"`
}

// Entries returns every ADD and OMIT entry with its Action set from the list
// it was read from. ADD entries come first.
func (document *AmendmentDocument) Entries() []Entry {
	entries := make([]Entry, 0, len(document.Add)+len(document.Omit))
	for _, entry := range document.Add {
		entry.Action = ActionAdd
		entries = append(entries, entry)
	}
	for _, entry := range document.Omit {
		entry.Action = ActionOmit
		entries = append(entries, entry)
	}
	return entries
}

// FilterColumn returns the entries affecting column, compared without
// surrounding whitespace and case-insensitively.
func FilterColumn(entries []Entry, column string) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if strings.EqualFold(strings.TrimSpace(entry.AffectedColumn), column) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// PersonEntry is one appointment or removal in a person gazette. Source
// files spell the ministry key "Ministry"; JSON decoding matches it
// case-insensitively.
type PersonEntry struct {
	Name     string `json:"name"`
	Ministry string `json:"ministry"`
	Position string `json:"position"`
	Date     string `json:"date"`
}

// PersonDocument is a decoded person gazette.
type PersonDocument struct {
	Number    string        `json:"-"`
	Date      string        `json:"-"`
	Add       []PersonEntry `json:"ADD"`
	Terminate []PersonEntry `json:"TERMINATE"`
}

// MinistryListing is one ministry and its ordered department list.
type MinistryListing struct {
	Name        string   `json:"name"`
	Departments []string `json:"departments"`
}

// InitialDocument is a decoded initial gazette.
type InitialDocument struct {
	Number     string            `json:"-"`
	Date       string            `json:"-"`
	Ministries []MinistryListing `json:"ministers"`
}

// Kind distinguishes the two state domains a gazette can belong to.
type Kind string

const (
	// KindMinDep covers ministry and department structure.
	KindMinDep Kind = "mindep"
	// KindPerson covers office holders.
	KindPerson Kind = "person"
)

// Format distinguishes the document layouts.
type Format string

const (
	// FormatInitial is a full ministry listing.
	FormatInitial Format = "initial"
	// FormatAmendment is a Column II change list.
	FormatAmendment Format = "amendment"
	// FormatPerson is an appointment list.
	FormatPerson Format = "person"
)

// KindFor returns the state domain a format belongs to.
func KindFor(format Format) Kind {
	if format == FormatPerson {
		return KindPerson
	}
	return KindMinDep
}

// ParseFormat validates a format name.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatInitial:
		return FormatInitial, nil
	case FormatAmendment:
		return FormatAmendment, nil
	case FormatPerson:
		return FormatPerson, nil
	}
	return "", errors.New("format must be one of initial, amendment, person")
}

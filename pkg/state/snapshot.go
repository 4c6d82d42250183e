// Package state holds the versioned ministry/department and person/portfolio
// state that gazettes are interpreted against. Snapshot is an immutable
// point-in-time view; Store persists snapshots in SQLite.
package state

import (
	"fmt"
	"strings"

	"github.com/coolbeans/gazette/pkg/classify"
	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/types"
)

// Version identifies a snapshot by the gazette that produced it and its
// effective date.
type Version struct {
	GazetteNumber string `json:"gazette_number"`
	Date          string `json:"date"`
}

// String renders "number@date".
func (version Version) String() string {
	return version.GazetteNumber + "@" + version.Date
}

// IsZero reports whether the version is unset.
func (version Version) IsZero() bool {
	return version.GazetteNumber == "" && version.Date == ""
}

// Snapshot is the ordered ministry to department assignment at one version.
// Within a ministry, positions run contiguously from 1 and department names
// are unique, compared with whitespace collapsed and case folded. A Snapshot
// is never modified after construction: accessors return copies and Apply
// produces a new Snapshot.
type Snapshot struct {
	version     Version
	ministries  []string
	departments map[string][]string
}

// NewSnapshot builds a snapshot from ordered listings. It rejects duplicate
// ministries and duplicate department names within a ministry.
func NewSnapshot(version Version, listings []gazette.MinistryListing) (*Snapshot, error) {
	snapshot := &Snapshot{
		version:     version,
		ministries:  make([]string, 0, len(listings)),
		departments: make(map[string][]string, len(listings)),
	}

	for _, listing := range listings {
		ministry := strings.TrimSpace(listing.Name)
		if ministry == "" {
			return nil, fmt.Errorf("snapshot %s: ministry with empty name", version)
		}
		if _, exists := snapshot.departments[ministry]; exists {
			return nil, fmt.Errorf("snapshot %s: duplicate ministry %q", version, ministry)
		}

		seen := make(map[string]bool, len(listing.Departments))
		departments := make([]string, 0, len(listing.Departments))
		for _, department := range listing.Departments {
			department = strings.TrimSpace(department)
			if department == "" {
				continue
			}
			key := departmentKey(department)
			if seen[key] {
				return nil, fmt.Errorf("snapshot %s: duplicate department %q under %q", version, department, ministry)
			}
			seen[key] = true
			departments = append(departments, department)
		}

		snapshot.ministries = append(snapshot.ministries, ministry)
		snapshot.departments[ministry] = departments
	}

	return snapshot, nil
}

// Version returns the snapshot's version.
func (snapshot *Snapshot) Version() Version {
	return snapshot.version
}

// Ministries returns ministry names in order.
func (snapshot *Snapshot) Ministries() []string {
	return append([]string(nil), snapshot.ministries...)
}

// HasMinistry reports whether ministry exists in the snapshot.
func (snapshot *Snapshot) HasMinistry(ministry string) bool {
	_, ok := snapshot.departments[ministry]
	return ok
}

// Departments returns a copy of ministry's ordered department list and
// whether the ministry exists.
func (snapshot *Snapshot) Departments(ministry string) ([]string, bool) {
	if snapshot == nil {
		return nil, false
	}
	departments, ok := snapshot.departments[ministry]
	if !ok {
		return nil, false
	}
	return append([]string(nil), departments...), true
}

// DepartmentAt returns the department at 1-based position under ministry.
func (snapshot *Snapshot) DepartmentAt(ministry string, position int) (string, bool) {
	departments, ok := snapshot.departments[ministry]
	if !ok || position < 1 || position > len(departments) {
		return "", false
	}
	return departments[position-1], true
}

// DepartmentCount returns the total number of departments.
func (snapshot *Snapshot) DepartmentCount() int {
	count := 0
	for _, departments := range snapshot.departments {
		count += len(departments)
	}
	return count
}

// Listings returns the snapshot as ordered listings, the shape initial
// gazettes and state exports use.
func (snapshot *Snapshot) Listings() []gazette.MinistryListing {
	listings := make([]gazette.MinistryListing, 0, len(snapshot.ministries))
	for _, ministry := range snapshot.ministries {
		listings = append(listings, gazette.MinistryListing{
			Name:        ministry,
			Departments: append([]string{}, snapshot.departments[ministry]...),
		})
	}
	return listings
}

// Apply returns a new snapshot at version with reviewed transactions applied
// in order. MOVE removes the department from its source and inserts it at
// position-1 in the target (appended when no position is given, clamped to
// the list bounds). ADD skips departments already present in the target.
// TERMINATE removes. Missing ministries are created on demand for ADD and
// MOVE targets. A MOVE or TERMINATE whose department is not found under its
// source ministry is skipped with a diagnostic.
func (snapshot *Snapshot) Apply(version Version, transactions []types.Transaction) (*Snapshot, diagnostic.List) {
	next := snapshot.clone(version)
	var diagnostics diagnostic.List

	for _, transaction := range transactions {
		if err := transaction.Validate(); err != nil {
			diagnostics.Addf(diagnostic.ApplySkipped, transactionMinistry(transaction), "invalid transaction: %v", err)
			continue
		}

		switch transaction.Type {
		case types.TransactionMove:
			if !next.remove(transaction.FromMinistry, transaction.Department) {
				diagnostics.Addf(diagnostic.ApplySkipped, transaction.FromMinistry, "%s not found for MOVE to %s", transaction.Department, transaction.ToMinistry)
				continue
			}
			next.insert(transaction.ToMinistry, transaction.Department, transaction.Position)

		case types.TransactionAdd:
			if next.contains(transaction.ToMinistry, transaction.Department) {
				continue
			}
			next.insert(transaction.ToMinistry, transaction.Department, transaction.Position)

		case types.TransactionTerminate:
			if !next.remove(transaction.FromMinistry, transaction.Department) {
				diagnostics.Addf(diagnostic.ApplySkipped, transaction.FromMinistry, "%s not found for TERMINATE", transaction.Department)
			}
		}
	}

	return next, diagnostics
}

func transactionMinistry(transaction types.Transaction) string {
	if transaction.FromMinistry != "" {
		return transaction.FromMinistry
	}
	return transaction.ToMinistry
}

func (snapshot *Snapshot) clone(version Version) *Snapshot {
	cloned := &Snapshot{
		version:     version,
		ministries:  append([]string(nil), snapshot.ministries...),
		departments: make(map[string][]string, len(snapshot.departments)),
	}
	for ministry, departments := range snapshot.departments {
		cloned.departments[ministry] = append([]string(nil), departments...)
	}
	return cloned
}

func (snapshot *Snapshot) ensureMinistry(ministry string) {
	if _, ok := snapshot.departments[ministry]; !ok {
		snapshot.ministries = append(snapshot.ministries, ministry)
		snapshot.departments[ministry] = []string{}
	}
}

func (snapshot *Snapshot) contains(ministry, department string) bool {
	key := departmentKey(department)
	for _, existing := range snapshot.departments[ministry] {
		if departmentKey(existing) == key {
			return true
		}
	}
	return false
}

// departmentKey is the name used for equality, the same key the classifier
// matches on. Transactions may carry a different casing than the snapshot,
// such as title-cased TERMINATE names.
func departmentKey(name string) string {
	return classify.NormalizeName(name)
}

// insert places department at 1-based position under ministry, or at the end
// when position is nil. A name already present is left where it is.
func (snapshot *Snapshot) insert(ministry, department string, position *int) {
	snapshot.ensureMinistry(ministry)
	departments := snapshot.departments[ministry]
	if snapshot.contains(ministry, department) {
		return
	}

	insertAt := len(departments)
	if position != nil {
		insertAt = *position - 1
		if insertAt < 0 {
			insertAt = 0
		}
		if insertAt > len(departments) {
			insertAt = len(departments)
		}
	}

	departments = append(departments, "")
	copy(departments[insertAt+1:], departments[insertAt:])
	departments[insertAt] = department
	snapshot.departments[ministry] = departments
}

func (snapshot *Snapshot) remove(ministry, department string) bool {
	departments, ok := snapshot.departments[ministry]
	if !ok {
		return false
	}
	key := departmentKey(department)
	for i, existing := range departments {
		if departmentKey(existing) == key {
			snapshot.departments[ministry] = append(departments[:i:i], departments[i+1:]...)
			return true
		}
	}
	return false
}

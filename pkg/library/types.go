package library

import (
	"encoding/json"
	"time"

	"github.com/coolbeans/gazette/pkg/gazette"
)

// GazetteStatus represents the state of a gazette in the library.
type GazetteStatus string

const (
	// StatusReady indicates the gazette was stored and decodes cleanly.
	StatusReady GazetteStatus = "ready"

	// StatusReviewed indicates a reviewer has saved transactions for it.
	StatusReviewed GazetteStatus = "reviewed"

	// StatusCommitted indicates its reviewed transactions were applied to state.
	StatusCommitted GazetteStatus = "committed"

	// StatusFailed indicates the gazette document could not be decoded.
	StatusFailed GazetteStatus = "failed"
)

// LibraryManifest is the top-level index of all gazettes in the library.
type LibraryManifest struct {
	Version   string          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Gazettes  []*GazetteEntry `json:"gazettes"`
}

// GazetteEntry represents a single gazette stored in the library.
type GazetteEntry struct {
	Number      string         `json:"number"`
	Date        string         `json:"date"`
	Kind        gazette.Kind   `json:"kind"`
	Format      gazette.Format `json:"format"`
	Status      GazetteStatus  `json:"status"`
	Warning     bool           `json:"warning"`
	AddedAt     time.Time      `json:"added_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CommittedAt *time.Time     `json:"committed_at,omitempty"`
	SourceInfo  string         `json:"source_info,omitempty"`
	Stats       *GazetteStats  `json:"stats,omitempty"`
	StorageHash string         `json:"storage_hash"`
	Error       string         `json:"error,omitempty"`
}

// GazetteStats holds counts taken when a gazette is added.
type GazetteStats struct {
	Entries          int `json:"entries,omitempty"`
	ColumnIIEntries  int `json:"column_ii_entries,omitempty"`
	DetailLines      int `json:"detail_lines,omitempty"`
	Ministries       int `json:"ministries,omitempty"`
	Departments      int `json:"departments,omitempty"`
	PersonAdds       int `json:"person_adds,omitempty"`
	PersonTerminates int `json:"person_terminates,omitempty"`
	SourceBytes      int `json:"source_bytes"`
}

// AddOptions configures how a gazette is added to the library.
type AddOptions struct {
	Date       string
	Format     gazette.Format // detected from the document when empty
	SourceInfo string
	Force      bool // overwrite existing gazette with same number
}

// Review is a reviewer's edited transaction set for one gazette, saved
// between preview and commit. Transactions holds the JSON the reviewer
// submitted: a department transaction list or a person transaction group.
type Review struct {
	ID            string          `json:"id"`
	GazetteNumber string          `json:"gazette_number"`
	Kind          gazette.Kind    `json:"kind"`
	SavedAt       time.Time       `json:"saved_at"`
	Transactions  json.RawMessage `json:"transactions"`
}

// LibraryStats aggregates counts across all gazettes in the library.
type LibraryStats struct {
	TotalGazettes int            `json:"total_gazettes"`
	Warnings      int            `json:"warnings"`
	ByKind        map[string]int `json:"by_kind"`
	ByFormat      map[string]int `json:"by_format"`
	ByStatus      map[string]int `json:"by_status"`
}

// ImportReport summarizes a directory import.
type ImportReport struct {
	TotalAttempted int                `json:"total_attempted"`
	Succeeded      int                `json:"succeeded"`
	Skipped        int                `json:"skipped"`
	Failed         int                `json:"failed"`
	Entries        []ImportEntryState `json:"entries"`
}

// ImportEntryState records the outcome of importing a single file.
type ImportEntryState struct {
	Number string `json:"number"`
	Path   string `json:"path"`
	Status string `json:"status"` // "added", "skipped", "failed"
	Error  string `json:"error,omitempty"`
}

package library

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/gazette/pkg/gazette"
)

const (
	manifestFileName = "library.json"
	documentsDir     = "documents"
	sourceFileName   = "gazette.json"
	reviewFileName   = "review.json"
	manifestVersion  = "1.0.0"
)

// ErrGazetteNotFound is returned when a gazette number is not in the library.
var ErrGazetteNotFound = errors.New("gazette not found")

// Library manages a persistent collection of gazette documents and the
// reviewed transactions saved for them.
type Library struct {
	mu       sync.RWMutex
	path     string
	manifest *LibraryManifest
}

// Init creates a new library at the given path.
func Init(libraryPath string) (*Library, error) {
	documentsPath := filepath.Join(libraryPath, documentsDir)
	if err := os.MkdirAll(documentsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	manifest := &LibraryManifest{
		Version:   manifestVersion,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Gazettes:  []*GazetteEntry{},
	}

	lib := &Library{
		path:     libraryPath,
		manifest: manifest,
	}

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return lib, nil
}

// Open loads an existing library from disk.
func Open(libraryPath string) (*Library, error) {
	manifestPath := filepath.Join(libraryPath, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var manifest LibraryManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse library manifest: %w", err)
	}

	return &Library{
		path:     libraryPath,
		manifest: &manifest,
	}, nil
}

// OpenOrInit opens the library at libraryPath, creating it when no manifest
// exists yet.
func OpenOrInit(libraryPath string) (*Library, error) {
	if _, err := os.Stat(filepath.Join(libraryPath, manifestFileName)); errors.Is(err, os.ErrNotExist) {
		return Init(libraryPath)
	}
	return Open(libraryPath)
}

// AddGazette stores a gazette document under its number. Adding a number
// that is already present returns the existing entry unless opts.Force is
// set. A document that does not decode is recorded as failed and its
// gazette.ParseError returned.
func (lib *Library) AddGazette(number string, data []byte, opts AddOptions) (*GazetteEntry, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if number == "" {
		return nil, fmt.Errorf("gazette number is required")
	}
	if !validDate(opts.Date) {
		return nil, fmt.Errorf("gazette %s: date %q is not YYYY-MM-DD", number, opts.Date)
	}

	existing := lib.findGazetteUnsafe(number)
	if existing != nil && !opts.Force {
		return existing, nil // idempotent: return existing entry
	}

	format := opts.Format
	if format == "" {
		detected, err := DetectFormat(data)
		if err != nil {
			return nil, &gazette.ParseError{Source: number, Err: err}
		}
		format = detected
	}

	storageHash := hashGazetteNumber(number)
	stats, err := inspectGazette(data, format, number)
	if err != nil {
		entry := &GazetteEntry{
			Number:      number,
			Date:        opts.Date,
			Kind:        gazette.KindFor(format),
			Format:      format,
			Status:      StatusFailed,
			AddedAt:     time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
			SourceInfo:  opts.SourceInfo,
			StorageHash: storageHash,
			Error:       err.Error(),
		}
		lib.upsertEntry(entry)
		if saveErr := lib.saveManifest(); saveErr != nil {
			return nil, fmt.Errorf("gazette rejected (%v) and failed to save manifest: %w", err, saveErr)
		}
		return nil, err
	}

	// Forcing a re-add discards any review made against the old document.
	if existing != nil {
		if err := os.RemoveAll(lib.documentDir(storageHash)); err != nil {
			return nil, fmt.Errorf("failed to clear previous files: %w", err)
		}
	}

	if err := lib.writeDocumentFile(storageHash, sourceFileName, data); err != nil {
		return nil, fmt.Errorf("failed to save gazette: %w", err)
	}

	entry := &GazetteEntry{
		Number:      number,
		Date:        opts.Date,
		Kind:        gazette.KindFor(format),
		Format:      format,
		Status:      StatusReady,
		AddedAt:     time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		SourceInfo:  opts.SourceInfo,
		Stats:       stats,
		StorageHash: storageHash,
	}

	lib.upsertEntry(entry)

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return entry, nil
}

// RemoveGazette deletes a gazette and its associated files from the library.
func (lib *Library) RemoveGazette(number string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrGazetteNotFound, number)
	}

	if err := os.RemoveAll(lib.documentDir(entry.StorageHash)); err != nil {
		return fmt.Errorf("failed to remove gazette files: %w", err)
	}

	lib.removeEntry(number)

	if err := lib.saveManifest(); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	return nil
}

// Info returns a copy of the entry for a gazette.
func (lib *Library) Info(number string) (*GazetteEntry, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrGazetteNotFound, number)
	}
	entryCopy := *entry
	return &entryCopy, nil
}

// List returns all gazette entries, sorted by date then number.
func (lib *Library) List() []*GazetteEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	result := make([]*GazetteEntry, len(lib.manifest.Gazettes))
	copy(result, lib.manifest.Gazettes)
	sortEntries(result)
	return result
}

// ListBetween returns gazettes of kind published from <= date <= to, sorted
// by date then number. An empty kind matches both kinds.
func (lib *Library) ListBetween(kind gazette.Kind, from, to string) ([]*GazetteEntry, error) {
	if !validDate(from) || !validDate(to) {
		return nil, fmt.Errorf("date range %q to %q is not YYYY-MM-DD", from, to)
	}

	lib.mu.RLock()
	defer lib.mu.RUnlock()

	result := []*GazetteEntry{}
	for _, entry := range lib.manifest.Gazettes {
		if kind != "" && entry.Kind != kind {
			continue
		}
		if entry.Date < from || entry.Date > to {
			continue
		}
		result = append(result, entry)
	}
	sortEntries(result)
	return result, nil
}

// ReadAmendment decodes a stored amendment gazette.
func (lib *Library) ReadAmendment(number string) (*gazette.AmendmentDocument, error) {
	data, entry, err := lib.readSource(number, gazette.FormatAmendment)
	if err != nil {
		return nil, err
	}
	document, err := gazette.DecodeAmendment(bytes.NewReader(data), number)
	if err != nil {
		return nil, err
	}
	document.Number, document.Date = entry.Number, entry.Date
	return document, nil
}

// ReadPerson decodes a stored person gazette.
func (lib *Library) ReadPerson(number string) (*gazette.PersonDocument, error) {
	data, entry, err := lib.readSource(number, gazette.FormatPerson)
	if err != nil {
		return nil, err
	}
	document, err := gazette.DecodePerson(bytes.NewReader(data), number)
	if err != nil {
		return nil, err
	}
	document.Number, document.Date = entry.Number, entry.Date
	return document, nil
}

// ReadInitial decodes a stored initial gazette.
func (lib *Library) ReadInitial(number string) (*gazette.InitialDocument, error) {
	data, entry, err := lib.readSource(number, gazette.FormatInitial)
	if err != nil {
		return nil, err
	}
	document, err := gazette.DecodeInitial(bytes.NewReader(data), number)
	if err != nil {
		return nil, err
	}
	document.Number, document.Date = entry.Number, entry.Date
	return document, nil
}

// LoadSource returns the stored gazette document bytes.
func (lib *Library) LoadSource(number string) ([]byte, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrGazetteNotFound, number)
	}
	return lib.readDocumentFile(entry.StorageHash, sourceFileName)
}

// SaveReview stores reviewed transactions for a gazette, replacing any
// earlier review, and marks the gazette reviewed. transactions is stored as
// JSON.
func (lib *Library) SaveReview(number string, transactions any) (*Review, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrGazetteNotFound, number)
	}

	payload, err := json.Marshal(transactions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review: %w", err)
	}

	review := &Review{
		ID:            uuid.NewString(),
		GazetteNumber: number,
		Kind:          entry.Kind,
		SavedAt:       time.Now().UTC(),
		Transactions:  payload,
	}
	data, err := json.MarshalIndent(review, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review: %w", err)
	}
	if err := lib.writeDocumentFile(entry.StorageHash, reviewFileName, data); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	if entry.Status == StatusReady {
		entry.Status = StatusReviewed
	}
	entry.UpdatedAt = time.Now().UTC()
	lib.manifest.UpdatedAt = entry.UpdatedAt
	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return review, nil
}

// LoadReview returns the saved review for a gazette. It returns nil and no
// error when the gazette exists but has no review yet.
func (lib *Library) LoadReview(number string) (*Review, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrGazetteNotFound, number)
	}

	data, err := lib.readDocumentFile(entry.StorageHash, reviewFileName)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read review for %s: %w", number, err)
	}

	var review Review
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, fmt.Errorf("failed to parse review for %s: %w", number, err)
	}
	return &review, nil
}

// SetWarning flags or clears a gazette for reviewer attention.
func (lib *Library) SetWarning(number string, warning bool) error {
	return lib.updateEntry(number, func(entry *GazetteEntry) {
		entry.Warning = warning
	})
}

// MarkCommitted records that a gazette's transactions were applied to state.
func (lib *Library) MarkCommitted(number string) error {
	return lib.updateEntry(number, func(entry *GazetteEntry) {
		committedAt := time.Now().UTC()
		entry.Status = StatusCommitted
		entry.CommittedAt = &committedAt
	})
}

// Stats returns aggregate counts across all gazettes.
func (lib *Library) Stats() *LibraryStats {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	libraryStats := &LibraryStats{
		ByKind:   make(map[string]int),
		ByFormat: make(map[string]int),
		ByStatus: make(map[string]int),
	}

	for _, entry := range lib.manifest.Gazettes {
		libraryStats.TotalGazettes++
		libraryStats.ByKind[string(entry.Kind)]++
		libraryStats.ByFormat[string(entry.Format)]++
		libraryStats.ByStatus[string(entry.Status)]++
		if entry.Warning {
			libraryStats.Warnings++
		}
	}

	return libraryStats
}

// Path returns the library's root directory.
func (lib *Library) Path() string {
	return lib.path
}

// --- Internal helpers ---

func (lib *Library) readSource(number string, want gazette.Format) ([]byte, *GazetteEntry, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return nil, nil, &gazette.ParseError{Source: number, Err: fmt.Errorf("%w: %w", gazette.ErrDocumentNotFound, ErrGazetteNotFound)}
	}
	if entry.Format != want {
		return nil, nil, &gazette.ParseError{Source: number, Err: fmt.Errorf("gazette is %s, not %s", entry.Format, want)}
	}
	if entry.Status == StatusFailed {
		return nil, nil, &gazette.ParseError{Source: number, Err: errors.New(entry.Error)}
	}

	data, err := lib.readDocumentFile(entry.StorageHash, sourceFileName)
	if err != nil {
		return nil, nil, &gazette.ParseError{Source: number, Err: err}
	}
	entryCopy := *entry
	return data, &entryCopy, nil
}

func (lib *Library) updateEntry(number string, update func(entry *GazetteEntry)) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entry := lib.findGazetteUnsafe(number)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrGazetteNotFound, number)
	}
	update(entry)
	entry.UpdatedAt = time.Now().UTC()
	lib.manifest.UpdatedAt = entry.UpdatedAt

	if err := lib.saveManifest(); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func (lib *Library) findGazetteUnsafe(number string) *GazetteEntry {
	for _, entry := range lib.manifest.Gazettes {
		if entry.Number == number {
			return entry
		}
	}
	return nil
}

func (lib *Library) upsertEntry(entry *GazetteEntry) {
	for i, existing := range lib.manifest.Gazettes {
		if existing.Number == entry.Number {
			lib.manifest.Gazettes[i] = entry
			lib.manifest.UpdatedAt = time.Now().UTC()
			return
		}
	}
	lib.manifest.Gazettes = append(lib.manifest.Gazettes, entry)
	lib.manifest.UpdatedAt = time.Now().UTC()
}

func (lib *Library) removeEntry(number string) {
	filtered := make([]*GazetteEntry, 0, len(lib.manifest.Gazettes))
	for _, entry := range lib.manifest.Gazettes {
		if entry.Number != number {
			filtered = append(filtered, entry)
		}
	}
	lib.manifest.Gazettes = filtered
	lib.manifest.UpdatedAt = time.Now().UTC()
}

func (lib *Library) saveManifest() error {
	manifestPath := filepath.Join(lib.path, manifestFileName)
	data, err := json.MarshalIndent(lib.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(manifestPath, data, 0644)
}

func (lib *Library) documentDir(storageHash string) string {
	return filepath.Join(lib.path, documentsDir, storageHash)
}

func (lib *Library) writeDocumentFile(storageHash string, fileName string, data []byte) error {
	dirPath := lib.documentDir(storageHash)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dirPath, fileName), data, 0644)
}

func (lib *Library) readDocumentFile(storageHash string, fileName string) ([]byte, error) {
	return os.ReadFile(filepath.Join(lib.documentDir(storageHash), fileName))
}

func sortEntries(entries []*GazetteEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Number < entries[j].Number
	})
}

func hashGazetteNumber(number string) string {
	hash := sha256.Sum256([]byte(number))
	return fmt.Sprintf("%x", hash)
}

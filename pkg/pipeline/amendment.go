package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coolbeans/gazette/pkg/amend"
	"github.com/coolbeans/gazette/pkg/classify"
	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/export"
	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/resolve"
	"github.com/coolbeans/gazette/pkg/state"
	"github.com/coolbeans/gazette/pkg/types"
)

// AmendmentPreview is the reviewable result of processing one amendment
// gazette. Transactions lists moves, then additions, then terminations;
// Moves, Adds and Terminates hold the same transactions split by type.
type AmendmentPreview struct {
	RunID         string              `json:"run_id"`
	GazetteNumber string              `json:"gazette_number"`
	Date          string              `json:"date"`
	BasedOn       state.Version       `json:"based_on"`
	Transactions  []types.Transaction `json:"transactions"`
	Moves         []types.Transaction `json:"moves"`
	Adds          []types.Transaction `json:"adds"`
	Terminates    []types.Transaction `json:"terminates"`
	Diagnostics   diagnostic.List     `json:"diagnostics"`
}

// PreviewAmendment parses an amendment gazette's Column II entries, resolves
// positional omissions against the latest department snapshot and
// classifies the result. A missing or malformed gazette is a
// gazette.ParseError. A MissingStateError is returned only when the gazette
// omits items by number and no snapshot exists; otherwise every problem is
// reported in Diagnostics.
func (processor *Processor) PreviewAmendment(ctx context.Context, number string) (*AmendmentPreview, error) {
	started := time.Now()
	runID := newRunID()
	logger := processor.runLogger(runID, "preview", number)

	preview, err := processor.previewAmendment(ctx, runID, number)
	var diagnostics diagnostic.List
	if preview != nil {
		diagnostics = preview.Diagnostics
		processor.metrics.AddTransactions(string(types.TransactionMove), len(preview.Moves))
		processor.metrics.AddTransactions(string(types.TransactionAdd), len(preview.Adds))
		processor.metrics.AddTransactions(string(types.TransactionTerminate), len(preview.Terminates))
	}
	processor.finish(logger, string(gazette.FormatAmendment), "preview", started, diagnostics, err)
	return preview, err
}

func (processor *Processor) previewAmendment(ctx context.Context, runID, number string) (*AmendmentPreview, error) {
	document, err := processor.library.ReadAmendment(number)
	if err != nil {
		return nil, err
	}

	entries := gazette.FilterColumn(document.Entries(), gazette.ColumnII)
	extraction := processor.recognizer.Extract(entries)

	// The snapshot is loaded once and never re-read during this run.
	snapshot, err := processor.store.LatestSnapshot(ctx)
	switch {
	case errors.Is(err, state.ErrSnapshotNotFound):
		if amend.HasPositions(extraction.Omitted) {
			return nil, &MissingStateError{GazetteNumber: number}
		}
		snapshot = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load prior state: %w", err)
	}

	resolved, resolveDiagnostics := resolve.Resolve(extraction.Omitted, snapshot)
	removed := append(resolved, extraction.NamedRemovals()...)
	transactions, classifyDiagnostics := classify.Classify(extraction.Added, removed)

	preview := &AmendmentPreview{
		RunID:         runID,
		GazetteNumber: number,
		Date:          document.Date,
		Transactions:  transactions,
		Moves:         []types.Transaction{},
		Adds:          []types.Transaction{},
		Terminates:    []types.Transaction{},
	}
	if snapshot != nil {
		preview.BasedOn = snapshot.Version()
	}
	for _, transaction := range transactions {
		switch transaction.Type {
		case types.TransactionMove:
			preview.Moves = append(preview.Moves, transaction)
		case types.TransactionAdd:
			preview.Adds = append(preview.Adds, transaction)
		case types.TransactionTerminate:
			preview.Terminates = append(preview.Terminates, transaction)
		}
	}

	preview.Diagnostics = append(preview.Diagnostics, extraction.Diagnostics...)
	preview.Diagnostics = append(preview.Diagnostics, resolveDiagnostics...)
	preview.Diagnostics = append(preview.Diagnostics, classifyDiagnostics...)
	if preview.Diagnostics == nil {
		preview.Diagnostics = diagnostic.List{}
	}
	return preview, nil
}

// CommitAmendment applies reviewed department transactions to the latest
// snapshot and saves the result as the gazette's version, then writes the
// CSV exports. When reviewed is nil the review saved in the library is used,
// and failing that a fresh preview. An explicit reviewed set is saved as the
// gazette's review. Transactions that cannot be applied are skipped with
// ApplySkipped diagnostics.
func (processor *Processor) CommitAmendment(ctx context.Context, number string, reviewed []types.Transaction) (*CommitResult, error) {
	started := time.Now()
	runID := newRunID()
	logger := processor.runLogger(runID, "commit", number)

	result, err := processor.commitAmendment(ctx, number, reviewed)
	var diagnostics diagnostic.List
	if result != nil {
		diagnostics = result.Diagnostics
	}
	processor.finish(logger, string(gazette.FormatAmendment), "commit", started, diagnostics, err)
	return result, err
}

func (processor *Processor) commitAmendment(ctx context.Context, number string, reviewed []types.Transaction) (*CommitResult, error) {
	entry, err := processor.library.Info(number)
	if err != nil {
		return nil, err
	}
	if entry.Format != gazette.FormatAmendment {
		return nil, &gazette.ParseError{Source: number, Err: fmt.Errorf("gazette is %s, not %s", entry.Format, gazette.FormatAmendment)}
	}

	explicit := reviewed != nil
	if !explicit {
		reviewed, err = processor.reviewedDepartmentTransactions(ctx, number)
		if err != nil {
			return nil, err
		}
	}
	for i, transaction := range reviewed {
		if err := transaction.Validate(); err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrInvalidTransactions, i+1, err)
		}
	}
	if explicit {
		if _, err := processor.library.SaveReview(number, reviewed); err != nil {
			return nil, err
		}
	}

	prior, err := processor.store.LatestSnapshot(ctx)
	if errors.Is(err, state.ErrSnapshotNotFound) {
		return nil, &MissingStateError{GazetteNumber: number}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prior state: %w", err)
	}

	version := state.Version{GazetteNumber: number, Date: entry.Date}
	next, diagnostics := prior.Apply(version, reviewed)
	if err := processor.store.SaveSnapshot(ctx, next); err != nil {
		return nil, err
	}

	files, err := export.WriteCSVs(processor.outputDir, export.DepartmentRows(number, entry.Date, reviewed))
	if err != nil {
		return nil, err
	}
	if err := processor.library.MarkCommitted(number); err != nil {
		return nil, err
	}

	if diagnostics == nil {
		diagnostics = diagnostic.List{}
	}
	return &CommitResult{
		GazetteNumber: number,
		Version:       version,
		BasedOn:       prior.Version(),
		Transactions:  len(reviewed),
		Files:         files,
		Diagnostics:   diagnostics,
	}, nil
}

func (processor *Processor) reviewedDepartmentTransactions(ctx context.Context, number string) ([]types.Transaction, error) {
	review, err := processor.library.LoadReview(number)
	if err != nil {
		return nil, err
	}
	if review != nil {
		var transactions []types.Transaction
		if err := json.Unmarshal(review.Transactions, &transactions); err != nil {
			return nil, fmt.Errorf("%w: saved review: %v", ErrInvalidTransactions, err)
		}
		return transactions, nil
	}

	preview, err := processor.previewAmendment(ctx, newRunID(), number)
	if err != nil {
		return nil, err
	}
	return preview.Transactions, nil
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/export"
	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/state"
	"github.com/coolbeans/gazette/pkg/types"
)

// PersonPreview is the reviewable result of processing one person gazette.
type PersonPreview struct {
	RunID         string                   `json:"run_id"`
	GazetteNumber string                   `json:"gazette_number"`
	Date          string                   `json:"date"`
	BasedOn       state.Version            `json:"based_on"`
	Transactions  types.PersonTransactions `json:"transactions"`
}

// PreviewPerson builds person transactions for a person gazette against the
// current portfolio set, which is read once for the whole run. Before any
// person gazette is committed the portfolio set is empty and no
// continuations are suggested.
func (processor *Processor) PreviewPerson(ctx context.Context, number string) (*PersonPreview, error) {
	started := time.Now()
	runID := newRunID()
	logger := processor.runLogger(runID, "preview", number)

	preview, err := processor.previewPerson(ctx, runID, number)
	if preview != nil {
		processor.metrics.AddTransactions(string(types.TransactionMove), len(preview.Transactions.Moves))
		processor.metrics.AddTransactions(string(types.TransactionAdd), len(preview.Transactions.Adds))
		processor.metrics.AddTransactions(string(types.TransactionTerminate), len(preview.Transactions.Terminates))
	}
	processor.finish(logger, string(gazette.FormatPerson), "preview", started, nil, err)
	return preview, err
}

func (processor *Processor) previewPerson(ctx context.Context, runID, number string) (*PersonPreview, error) {
	document, err := processor.library.ReadPerson(number)
	if err != nil {
		return nil, err
	}

	portfolios, version, err := processor.store.CurrentPortfolios(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current portfolios: %w", err)
	}

	return &PersonPreview{
		RunID:         runID,
		GazetteNumber: number,
		Date:          document.Date,
		BasedOn:       version,
		Transactions:  processor.builder.Build(document.Add, document.Terminate, portfolios),
	}, nil
}

// CommitPerson applies reviewed person transactions to the current
// portfolio set, saves the result under the gazette's version and writes the
// CSV exports. When reviewed is nil the saved review is used, and failing
// that a fresh preview.
func (processor *Processor) CommitPerson(ctx context.Context, number string, reviewed *types.PersonTransactions) (*CommitResult, error) {
	started := time.Now()
	runID := newRunID()
	logger := processor.runLogger(runID, "commit", number)

	result, err := processor.commitPerson(ctx, number, reviewed)
	var diagnostics diagnostic.List
	if result != nil {
		diagnostics = result.Diagnostics
	}
	processor.finish(logger, string(gazette.FormatPerson), "commit", started, diagnostics, err)
	return result, err
}

func (processor *Processor) commitPerson(ctx context.Context, number string, reviewed *types.PersonTransactions) (*CommitResult, error) {
	entry, err := processor.library.Info(number)
	if err != nil {
		return nil, err
	}
	if entry.Format != gazette.FormatPerson {
		return nil, &gazette.ParseError{Source: number, Err: fmt.Errorf("gazette is %s, not %s", entry.Format, gazette.FormatPerson)}
	}

	explicit := reviewed != nil
	if !explicit {
		reviewed, err = processor.reviewedPersonTransactions(ctx, number)
		if err != nil {
			return nil, err
		}
	}
	if err := reviewed.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransactions, err)
	}
	if explicit {
		if _, err := processor.library.SaveReview(number, reviewed); err != nil {
			return nil, err
		}
	}

	current, basedOn, err := processor.store.CurrentPortfolios(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current portfolios: %w", err)
	}

	version := state.Version{GazetteNumber: number, Date: entry.Date}
	next, diagnostics := state.ApplyPortfolios(current, *reviewed)
	if err := processor.store.SavePortfolios(ctx, version, next); err != nil {
		return nil, err
	}

	files, err := export.WriteCSVs(processor.outputDir, export.PersonRows(number, entry.Date, *reviewed))
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
		BasedOn:       basedOn,
		Transactions:  reviewed.Count(),
		Files:         files,
		Diagnostics:   diagnostics,
	}, nil
}

func (processor *Processor) reviewedPersonTransactions(ctx context.Context, number string) (*types.PersonTransactions, error) {
	review, err := processor.library.LoadReview(number)
	if err != nil {
		return nil, err
	}
	if review != nil {
		var transactions types.PersonTransactions
		if err := json.Unmarshal(review.Transactions, &transactions); err != nil {
			return nil, fmt.Errorf("%w: saved review: %v", ErrInvalidTransactions, err)
		}
		return &transactions, nil
	}

	preview, err := processor.previewPerson(ctx, newRunID(), number)
	if err != nil {
		return nil, err
	}
	return &preview.Transactions, nil
}

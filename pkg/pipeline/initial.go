package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/export"
	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/state"
)

// InitialPreview is the listing an initial gazette would install.
type InitialPreview struct {
	GazetteNumber string                    `json:"gazette_number"`
	Date          string                    `json:"date"`
	Ministries    []gazette.MinistryListing `json:"ministers"`
	Departments   int                       `json:"departments"`
}

// PreviewInitial decodes an initial gazette and checks it forms a valid
// snapshot, without saving anything.
func (processor *Processor) PreviewInitial(ctx context.Context, number string) (*InitialPreview, error) {
	document, err := processor.library.ReadInitial(number)
	if err != nil {
		return nil, err
	}
	snapshot, err := state.NewSnapshot(state.Version{GazetteNumber: number, Date: document.Date}, document.Ministries)
	if err != nil {
		return nil, &gazette.ParseError{Source: number, Err: err}
	}
	return &InitialPreview{
		GazetteNumber: number,
		Date:          document.Date,
		Ministries:    snapshot.Listings(),
		Departments:   snapshot.DepartmentCount(),
	}, nil
}

// CommitInitial installs an initial gazette as a department snapshot and
// writes its minister and department rows. Re-committing the same gazette
// replaces its version and makes it the latest again.
func (processor *Processor) CommitInitial(ctx context.Context, number string) (*CommitResult, error) {
	started := time.Now()
	runID := newRunID()
	logger := processor.runLogger(runID, "commit", number)

	result, err := processor.commitInitial(ctx, number)
	processor.finish(logger, string(gazette.FormatInitial), "commit", started, nil, err)
	return result, err
}

func (processor *Processor) commitInitial(ctx context.Context, number string) (*CommitResult, error) {
	document, err := processor.library.ReadInitial(number)
	if err != nil {
		return nil, err
	}

	version := state.Version{GazetteNumber: number, Date: document.Date}
	snapshot, err := state.NewSnapshot(version, document.Ministries)
	if err != nil {
		return nil, &gazette.ParseError{Source: number, Err: err}
	}
	if err := processor.store.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	rows := export.InitialRows(number, document.Date, processor.governmentName, snapshot.Listings())
	files, err := export.WriteCSVs(processor.outputDir, rows)
	if err != nil {
		return nil, err
	}
	if err := processor.library.MarkCommitted(number); err != nil {
		return nil, err
	}

	return &CommitResult{
		GazetteNumber: number,
		Version:       version,
		Transactions:  rows.Count(),
		Files:         files,
		Diagnostics:   diagnostic.List{},
	}, nil
}

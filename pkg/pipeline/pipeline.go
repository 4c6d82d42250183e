// Package pipeline runs gazettes from the library through parsing,
// resolution and classification, and commits reviewed results to the state
// store and CSV exports.
//
// A preview never changes state. Each preview freezes the state it reads
// once, so concurrent commits cannot change the snapshot a preview resolves
// against midway.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/gazette/internal/logging"
	"github.com/coolbeans/gazette/pkg/amend"
	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/library"
	"github.com/coolbeans/gazette/pkg/metrics"
	"github.com/coolbeans/gazette/pkg/person"
	"github.com/coolbeans/gazette/pkg/similarity"
	"github.com/coolbeans/gazette/pkg/state"
)

// ErrMissingState is wrapped by MissingStateError.
var ErrMissingState = errors.New("no prior department state")

// ErrInvalidTransactions is returned when reviewed transactions fail
// validation. Nothing is applied.
var ErrInvalidTransactions = errors.New("invalid reviewed transactions")

// MissingStateError reports an amendment that needs a prior department
// snapshot when none has been committed.
type MissingStateError struct {
	GazetteNumber string
}

func (missingStateError *MissingStateError) Error() string {
	return fmt.Sprintf("gazette %s: %v, commit an initial gazette first", missingStateError.GazetteNumber, ErrMissingState)
}

func (missingStateError *MissingStateError) Unwrap() error {
	return ErrMissingState
}

// Options configures a Processor.
type Options struct {
	OutputDir           string
	GovernmentName      string
	SimilarityThreshold float64
	Logger              *slog.Logger        // discarded when nil
	Metrics             *metrics.Metrics    // optional
	Matcher             *similarity.Matcher // similarity.NewMatcher when nil
}

// Processor wires the library, the state store and the parsing stages.
type Processor struct {
	library        *library.Library
	store          *state.Store
	recognizer     *amend.Recognizer
	builder        *person.Builder
	logger         *slog.Logger
	metrics        *metrics.Metrics
	outputDir      string
	governmentName string
}

// New creates a Processor.
func New(lib *library.Library, store *state.Store, options Options) *Processor {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		library:        lib,
		store:          store,
		recognizer:     amend.NewRecognizer(),
		builder:        person.NewBuilder(options.Matcher, options.SimilarityThreshold),
		logger:         logger,
		metrics:        options.Metrics,
		outputDir:      options.OutputDir,
		governmentName: options.GovernmentName,
	}
}

// Library returns the gazette library the processor reads from.
func (processor *Processor) Library() *library.Library {
	return processor.library
}

// Store returns the state store the processor commits to.
func (processor *Processor) Store() *state.Store {
	return processor.store
}

// CommitResult describes a committed gazette.
type CommitResult struct {
	GazetteNumber string          `json:"gazette_number"`
	Version       state.Version   `json:"version"`
	BasedOn       state.Version   `json:"based_on"`
	Transactions  int             `json:"transactions"`
	Files         []string        `json:"files"`
	Diagnostics   diagnostic.List `json:"diagnostics"`
}

func newRunID() string {
	return uuid.NewString()
}

// runLogger returns the logger annotated for one run.
func (processor *Processor) runLogger(runID, stage, number string) *slog.Logger {
	return processor.logger.With("run_id", runID, "stage", stage, "gazette", number)
}

// finish records metrics for a finished stage and logs its diagnostics.
func (processor *Processor) finish(logger *slog.Logger, format, stage string, started time.Time, diagnostics diagnostic.List, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	processor.metrics.IncrementProcessed(format, stage, outcome)
	processor.metrics.ObserveStageLatency(stage, time.Since(started))
	for _, item := range diagnostics {
		processor.metrics.IncrementDiagnostic(string(item.Kind))
	}
	diagnostics.LogAll(logger)
	if err != nil {
		logger.Error("gazette failed", "error", err)
		return
	}
	logger.Info("gazette processed", "diagnostics", len(diagnostics), "duration", time.Since(started))
}

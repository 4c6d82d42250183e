// Package api serves gazette previews, commits and state over HTTP for the
// review front end.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coolbeans/gazette/internal/logging"
	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/library"
	"github.com/coolbeans/gazette/pkg/pipeline"
	"github.com/coolbeans/gazette/pkg/types"
)

// maxBodyBytes bounds reviewed transaction uploads.
const maxBodyBytes = 8 << 20

var errNotFound = errors.New("not found")

// Handler wires the review endpoints to a pipeline.Processor.
type Handler struct {
	processor *pipeline.Processor
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
}

// New constructs a Handler. gatherer backs /metrics; nil uses the default
// registry. A nil logger discards request logs.
func New(processor *pipeline.Processor, logger *slog.Logger, gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{processor: processor, logger: logger, gatherer: gatherer}
}

// Router returns a chi router with all endpoints mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/mindep/initial/{date}/{number}", h.handlePreviewInitial)
	r.Post("/mindep/initial/{date}/{number}", h.handleCommitInitial)
	r.Get("/mindep/amendment/{date}/{number}", h.handlePreviewAmendment)
	r.Post("/mindep/amendment/{date}/{number}", h.handleCommitAmendment)
	r.Get("/person/{date}/{number}", h.handlePreviewPerson)
	r.Post("/person/{date}/{number}", h.handleCommitPerson)

	r.Get("/mindep/state/latest", h.handleLatestState)
	r.Get("/mindep/state/{date}", h.handleStateOn)

	r.Get("/info/{number}", h.handleInfo)
	r.Get("/info/{kind}/{from}/{to}", h.handleInfoBetween)

	r.Get("/transactions/{number}", h.handleLoadReview)
	r.Post("/transactions/{number}", h.handleSaveReview)
	r.Post("/transactions/{number}/warning", h.handleSetWarning)

	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

// gazetteFor looks up the gazette named in the path and checks its date.
func (h *Handler) gazetteFor(r *http.Request) (*library.GazetteEntry, error) {
	number := chi.URLParam(r, "number")
	entry, err := h.processor.Library().Info(number)
	if err != nil {
		return nil, err
	}
	if date := chi.URLParam(r, "date"); date != "" && date != entry.Date {
		return nil, fmt.Errorf("%w: gazette %s is dated %s, not %s", errNotFound, number, entry.Date, date)
	}
	return entry, nil
}

func (h *Handler) handlePreviewInitial(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	preview, err := h.processor.PreviewInitial(r.Context(), entry.Number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *Handler) handleCommitInitial(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.processor.CommitInitial(r.Context(), entry.Number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePreviewAmendment(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	preview, err := h.processor.PreviewAmendment(r.Context(), entry.Number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// commitAmendmentRequest is the POST body; an empty body commits the saved
// review.
type commitAmendmentRequest struct {
	Transactions []types.Transaction `json:"transactions"`
}

func (h *Handler) handleCommitAmendment(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request commitAmendmentRequest
	if err := decodeOptionalBody(r, &request); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	result, err := h.processor.CommitAmendment(r.Context(), entry.Number, request.Transactions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePreviewPerson(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	preview, err := h.processor.PreviewPerson(r.Context(), entry.Number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// commitPersonRequest is the POST body; an empty body commits the saved
// review.
type commitPersonRequest struct {
	Transactions *types.PersonTransactions `json:"transactions"`
}

func (h *Handler) handleCommitPerson(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request commitPersonRequest
	if err := decodeOptionalBody(r, &request); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	result, err := h.processor.CommitPerson(r.Context(), entry.Number, request.Transactions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLatestState(w http.ResponseWriter, r *http.Request) {
	view, err := h.processor.LatestState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleStateOn(w http.ResponseWriter, r *http.Request) {
	view, err := h.processor.StateOn(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if view.Ambiguous() {
		writeJSON(w, http.StatusMultipleChoices, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleInfoBetween(w http.ResponseWriter, r *http.Request) {
	kind := gazette.Kind(chi.URLParam(r, "kind"))
	if kind != gazette.KindMinDep && kind != gazette.KindPerson {
		writeBadRequest(w, fmt.Sprintf("kind must be %s or %s", gazette.KindMinDep, gazette.KindPerson))
		return
	}
	entries, err := h.processor.Library().ListBetween(kind, chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleLoadReview(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	review, err := h.processor.Library().LoadReview(number)
	if err != nil {
		writeError(w, err)
		return
	}
	if review == nil {
		writeError(w, fmt.Errorf("%w: no saved transactions for %s", errNotFound, number))
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// handleSaveReview stores a reviewer's transaction draft. The body is a
// department transaction list or a person transaction group, depending on
// the gazette's kind.
func (h *Handler) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	entry, err := h.gazetteFor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var transactions any
	switch entry.Kind {
	case gazette.KindPerson:
		var personTransactions types.PersonTransactions
		if err := json.Unmarshal(body, &personTransactions); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		if err := personTransactions.Validate(); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		transactions = personTransactions
	default:
		var departmentTransactions []types.Transaction
		if err := json.Unmarshal(body, &departmentTransactions); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		for i, transaction := range departmentTransactions {
			if err := transaction.Validate(); err != nil {
				writeBadRequest(w, fmt.Sprintf("transaction %d: %v", i+1, err))
				return
			}
		}
		transactions = departmentTransactions
	}

	review, err := h.processor.Library().SaveReview(entry.Number, transactions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

type warningRequest struct {
	Warning bool `json:"warning"`
}

func (h *Handler) handleSetWarning(w http.ResponseWriter, r *http.Request) {
	var request warningRequest
	if err := decodeOptionalBody(r, &request); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	number := chi.URLParam(r, "number")
	if err := h.processor.Library().SetWarning(number, request.Warning); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.processor.Library().Info(number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// decodeOptionalBody decodes a JSON body into target, leaving it untouched
// when the body is empty.
func decodeOptionalBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/library"
	"github.com/coolbeans/gazette/pkg/pipeline"
	"github.com/coolbeans/gazette/pkg/state"
)

// Error codes returned in the "error" field of error responses.
const (
	CodeNotFound      = "not_found"
	CodeParseError    = "parse_error"
	CodeMissingState  = "missing_state"
	CodeBadRequest    = "bad_request"
	CodeInternalError = "internal_error"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to a status code. Internal errors omit the
// description.
func writeError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	response := errorResponse{Error: code}
	if status != http.StatusInternalServerError {
		response.Description = err.Error()
	}
	writeJSON(w, status, response)
}

func writeBadRequest(w http.ResponseWriter, description string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: CodeBadRequest, Description: description})
}

func classifyError(err error) (int, string) {
	var parseError *gazette.ParseError
	switch {
	case errors.Is(err, gazette.ErrDocumentNotFound),
		errors.Is(err, library.ErrGazetteNotFound),
		errors.Is(err, state.ErrSnapshotNotFound),
		errors.Is(err, errNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &parseError):
		return http.StatusUnprocessableEntity, CodeParseError
	case errors.Is(err, pipeline.ErrMissingState):
		return http.StatusConflict, CodeMissingState
	case errors.Is(err, pipeline.ErrInvalidTransactions):
		return http.StatusBadRequest, CodeBadRequest
	}
	return http.StatusInternalServerError, CodeInternalError
}

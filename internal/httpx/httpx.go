// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/microearn/backend/internal/models"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

var statusByErr = []struct {
	err    error
	status int
}{
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrInsufficientFunds, http.StatusBadRequest},
	{models.ErrBelowMinimum, http.StatusBadRequest},
	{models.ErrInvalidAmount, http.StatusBadRequest},
	{models.ErrValidation, http.StatusBadRequest},
	{models.ErrInvalidRole, http.StatusBadRequest},
	{models.ErrDuplicateSubmission, http.StatusConflict},
	{models.ErrTaskClosed, http.StatusConflict},
	{models.ErrTaskFull, http.StatusConflict},
	{models.ErrAlreadyReviewed, http.StatusConflict},
	{models.ErrAlreadyProcessed, http.StatusConflict},
	{models.ErrNotApproved, http.StatusConflict},
	{models.ErrInvalidTransition, http.StatusConflict},
	{models.ErrRoleLocked, http.StatusConflict},
	{models.ErrDuplicateEmail, http.StatusConflict},
	{models.ErrNotAuthorized, http.StatusForbidden},
	{models.ErrInvalidCredentials, http.StatusUnauthorized},
	{models.ErrExternalVerificationFailed, http.StatusBadGateway},
}

// StatusFor returns the HTTP status for a domain error.
func StatusFor(err error) int {
	for _, e := range statusByErr {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// WriteError writes err as a JSON error body. Unmapped errors are logged and
// reported as a generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log == nil {
			log = slog.Default()
		}
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		msg = "internal error"
	}
	WriteJSON(w, status, errorBody{Error: msg})
}

// Fail writes a fixed status and message.
func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// IDParam parses a UUID route parameter.
func IDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, models.ErrValidation
	}
	return id, nil
}

// PageFromQuery reads ?page= and ?limit=.
func PageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	n, _ := strconv.Atoi(q.Get("page"))
	l, _ := strconv.Atoi(q.Get("limit"))
	return models.Page{Number: n, Limit: l}.Normalize()
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/storage"
)

// Regular API bodies are small; backup restores carry the user's entire
// history and get a much larger allowance.
const (
	maxBodyBytes       = 1 << 20
	maxBackupBodyBytes = 256 << 20
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type okBody struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Response encoding failed", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorBody{Error: msg, Detail: detail})
}

// respondError maps domain failures to the wire: invalid input is 400 with
// the field-specific message, unknown ids are 404, anything else is 500.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error(), "")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", "")
	default:
		slog.ErrorContext(r.Context(), fallback,
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldError, err,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeJSONLimit(w, r, dst, maxBodyBytes)
}

func decodeJSONLimit(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("request body too large: limit is %d bytes", mbe.Limit)
		}
		return fmt.Errorf("read request body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseRequestDate turns a YYYY-MM-DD body field into a noon-local Date,
// reporting malformed input against the named field.
func parseRequestDate(field, value string) (core.Date, error) {
	if value == "" {
		return core.Date{}, &core.ValidationError{Field: field, Reason: "is required"}
	}
	t, err := core.ParseDateOnlyLocal(value)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Reason: "must be a valid YYYY-MM-DD date"}
	}
	return core.Date{Time: t}, nil
}

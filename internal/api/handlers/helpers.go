package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/api/dto"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/platform/obs"
	"haversine-udf/internal/services"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// Encode v before touching the response, so an unencodable value (a NaN, say)
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("encode failed")
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(dto.ErrorResponse{
			Error:     http.StatusText(status),
			RequestID: obs.RequestID(r.Context()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		writeFailed(r, err)
	}
}

func writeFailed(r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("write failed")
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg, RequestID: obs.RequestID(r.Context())})
}

// Write the status and message that err maps to. Server errors are logged
// and their details withheld from the client.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, status, http.StatusText(status))
		return
	}
	writeError(w, r, status, err.Error())
}

// Map domain and transport errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrLengthMismatch),
		errors.Is(err, domain.ErrInputConversion),
		errors.Is(err, domain.ErrMissingColumn),
		errors.Is(err, services.ErrUnknownMethod),
		errors.Is(err, services.ErrUnsupportedSource),
		errors.Is(err, arrowudf.ErrInvalidStream),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNullValue),
		errors.Is(err, domain.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// Decode exactly one JSON object with no unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return badRequest("body must contain only one JSON object")
	}
	return nil
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string        { return e.msg }
func (e *badRequestError) Is(target error) bool { return target == errBadRequest }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

// Reject any method other than allowed, setting the Allow header.
func allowMethod(w http.ResponseWriter, r *http.Request, allowed string) bool {
	if r.Method == allowed {
		return true
	}
	w.Header().Set("Allow", allowed)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

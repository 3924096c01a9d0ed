package shared

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the uniform error body returned by all handlers.
type ErrorResponse struct {
	Error  string         `json:"error"`
	Kind   Kind           `json:"kind"`
	Detail map[string]any `json:"detail,omitempty"`
}

var kindStatus = map[Kind]int{
	KindUnauthorized:     http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindInsufficientRole: http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindValidation:       http.StatusUnprocessableEntity,
	KindInvalidOperation: http.StatusConflict,
	KindConflict:         http.StatusConflict,
	KindInternal:         http.StatusInternalServerError,
}

// StatusForKind maps an error kind to its HTTP status code.
func StatusForKind(kind Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON serialises v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError converts err to the uniform error body. Unclassified errors
// surface as a generic internal error so store details never leak.
func WriteError(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	body := ErrorResponse{Kind: kind, Detail: DetailOf(err)}
	var classified *Error
	if kind != KindInternal && errors.As(err, &classified) {
		body.Error = classified.Message
	} else {
		body.Error = "internal error"
	}
	WriteJSON(w, StatusForKind(kind), body)
}

// DecodeJSON parses a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return Wrap(KindValidation, "invalid request body", err)
	}
	return nil
}

package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusForKind(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, StatusForKind(KindUnauthorized))
	require.Equal(t, http.StatusForbidden, StatusForKind(KindForbidden))
	require.Equal(t, http.StatusForbidden, StatusForKind(KindInsufficientRole))
	require.Equal(t, http.StatusNotFound, StatusForKind(KindNotFound))
	require.Equal(t, http.StatusUnprocessableEntity, StatusForKind(KindValidation))
	require.Equal(t, http.StatusConflict, StatusForKind(KindInvalidOperation))
	require.Equal(t, http.StatusConflict, StatusForKind(KindConflict))
	require.Equal(t, http.StatusInternalServerError, StatusForKind(KindInternal))
	require.Equal(t, http.StatusInternalServerError, StatusForKind(Kind("mystery")))
}

func TestWriteErrorClassified(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, EDetail(KindValidation, "entry is not balanced", map[string]any{"difference": 20.0}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "entry is not balanced", body.Error)
	require.Equal(t, KindValidation, body.Kind)
	require.Equal(t, 20.0, body.Detail["difference"])
}

func TestWriteErrorMasksInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused on 10.0.0.3"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal error", body.Error)
	require.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))
	var dest struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(req, &dest)
	require.Equal(t, KindValidation, KindOf(err))
}

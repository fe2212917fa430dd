package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/bizlens/internal/api/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, decode(t, w), "data")
}

func TestList(t *testing.T) {
	w := httptest.NewRecorder()
	response.List(w, []string{"a", "b"}, response.ListMeta{Count: 2, Limit: 10})

	body := decode(t, w)
	assert.Len(t, body["data"], 2)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["count"])
	assert.Equal(t, float64(10), meta["limit"])
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	response.NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusBadRequest, "VALIDATION_FAILED", "Company name is required",
		map[string]string{"field": "company_name"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", e["code"])
	assert.Equal(t, "Company name is required", e["message"])
	assert.Equal(t, "company_name", e["details"].(map[string]any)["field"])
}

func TestError_OmitsEmptyDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusNotFound, "NOT_FOUND", "missing", nil)

	e := decode(t, w)["error"].(map[string]any)
	_, ok := e["details"]
	assert.False(t, ok)
}

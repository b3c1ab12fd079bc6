package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-box/internal/domain/entity"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestJSON(t *testing.T) {
	type recipe struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	tests := []struct {
		name     string
		code     int
		value    any
		wantBody string
	}{
		{name: "object", code: http.StatusOK, value: recipe{ID: "52772", Name: "Teriyaki Chicken Casserole"}, wantBody: `{"id":"52772","name":"Teriyaki Chicken Casserole"}`},
		{name: "created", code: http.StatusCreated, value: recipe{ID: "local-1", Name: "Dal"}, wantBody: `{"id":"local-1","name":"Dal"}`},
		{name: "empty list", code: http.StatusOK, value: []recipe{}, wantBody: `[]`},
		{name: "nil body", code: http.StatusNoContent, value: nil, wantBody: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.code, tt.value)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody == "" {
				assert.Empty(t, rec.Body.String())
				return
			}
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() { JSON(rec, http.StatusOK, math.Inf(1)) })
	assert.Equal(t, http.StatusOK, rec.Code, "status is already sent when encoding fails")
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, errors.New("query is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"error": "query is required"}, decodeBody(t, rec))
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		err     error
		wantMsg string
	}{
		{
			name:    "validation error shows bare message",
			code:    http.StatusBadRequest,
			err:     fmt.Errorf("create: %w", &entity.ValidationError{Field: "name", Message: "Please add a recipe name"}),
			wantMsg: "Please add a recipe name",
		},
		{
			name:    "safe client error is echoed",
			code:    http.StatusNotFound,
			err:     errors.New("recipe not found"),
			wantMsg: "recipe not found",
		},
		{
			name:    "unrecognised client error is hidden",
			code:    http.StatusBadRequest,
			err:     errors.New("bolt: bucket missing"),
			wantMsg: "internal server error",
		},
		{
			name:    "server error hides safe-looking text",
			code:    http.StatusInternalServerError,
			err:     errors.New("invalid memory address"),
			wantMsg: "internal server error",
		},
		{
			name:    "store error with DSN",
			code:    http.StatusServiceUnavailable,
			err:     errors.New("dial postgres://app:hunter2@db:5432/recipes: refused"),
			wantMsg: "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SafeError(rec, tt.code, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.NotContains(t, rec.Body.String(), "hunter2")
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusBadRequest, nil)

	assert.Empty(t, rec.Body.String())
	assert.Equal(t, http.StatusOK, rec.Code, "nothing written")
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusBadGateway, "recipe catalogue unavailable",
		errors.New("GET https://www.themealdb.com/api/json/v1/1/lookup.php: EOF"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, map[string]string{"error": "recipe catalogue unavailable"}, decodeBody(t, rec))

	rec = httptest.NewRecorder()
	Fail(rec, http.StatusBadRequest, "only local recipes can be deleted", nil)
	assert.Equal(t, "only local recipes can be deleted", decodeBody(t, rec)["error"])
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"validation error", &entity.ValidationError{Field: "image", Message: "image url must be an absolute http or https URL"}, "image url must be an absolute http or https URL", true},
		{"duplicate", errors.New("recipe with this ID already exists"), "recipe with this ID already exists", true},
		{"limit", errors.New("limit must be between 1 and 100"), "limit must be between 1 and 100", true},
		{"case insensitive", errors.New("Invalid recipe ID"), "Invalid recipe ID", true},
		{"internal", errors.New("unexpected EOF"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UserMessage(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "field validation",
			err:        apperrors.ValidationField("email", "Email is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"validation","message":"Email is required","field":"email"}`,
		},
		{
			name:       "wrapped unauthorized",
			err:        fmt.Errorf("login: %w", apperrors.Unauthorized("Invalid credentials")),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"unauthorized","message":"Invalid credentials"}`,
		},
		{
			name:       "internal text is hidden",
			err:        apperrors.Internal("pq: relation does not exist"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal","message":"Internal Server Error"}`,
		},
		{
			name:       "plain error is internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal","message":"Internal Server Error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@example.com"}`))
	assert.True(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "a@example.com", dst.Email)

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":1}`))
	assert.False(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

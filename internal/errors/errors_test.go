package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "resource not found"},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, ErrCodeUnavailable, "backend unreachable")
	if !errors.Is(err, cause) {
		t.Errorf("Wrap() must keep the cause reachable")
	}
	if !IsUnavailable(err) {
		t.Errorf("Wrap() code = %v, want %v", err.Code, ErrCodeUnavailable)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) must return nil")
	}
	if Wrapf(nil, ErrCodeInternal, "x %d", 1) != nil {
		t.Errorf("Wrapf(nil) must return nil")
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NotFound("missing"), IsNotFound},
		{"conflict", Conflict("dup"), IsConflict},
		{"validation", ValidationField("email", "required"), IsValidation},
		{"unauthorized", Unauthorized("expired"), IsUnauthorized},
		{"forbidden", Forbidden("role"), IsForbidden},
		{"timeout", New(ErrCodeTimeout, "slow"), IsTimeout},
		{"canceled", New(ErrCodeCanceled, "gone"), IsCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("predicate did not match wrapped %v", tt.err)
			}
			if tt.check(errors.New("plain")) {
				t.Errorf("predicate matched a plain error")
			}
		})
	}
}

func TestGetCodeAndField(t *testing.T) {
	err := fmt.Errorf("signup: %w", ValidationField("email", "required"))
	if GetCode(err) != ErrCodeValidation {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
	if GetField(err) != "email" {
		t.Errorf("GetField() = %v", GetField(err))
	}
	if GetCode(errors.New("plain")) != "" || GetField(nil) != "" {
		t.Errorf("non-AppError must have no code or field")
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusBadRequest, ErrCodeValidation},
		{http.StatusUnprocessableEntity, ErrCodeValidation},
		{http.StatusGatewayTimeout, ErrCodeTimeout},
		{http.StatusServiceUnavailable, ErrCodeUnavailable},
		{http.StatusInternalServerError, ErrCodeInternal},
		{http.StatusTeapot, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromHTTPStatus(tt.status, "")
			if err.Code != tt.want {
				t.Errorf("FromHTTPStatus(%d) = %v, want %v", tt.status, err.Code, tt.want)
			}
			if err.Message != http.StatusText(tt.status) {
				t.Errorf("default message = %q", err.Message)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	if HTTPStatus(ErrCodeUnauthorized) != http.StatusUnauthorized {
		t.Errorf("unauthorized must map to 401")
	}
	if HTTPStatus(ErrCodeForbidden) != http.StatusForbidden {
		t.Errorf("forbidden must map to 403")
	}
	if HTTPStatus(ErrCodeUnavailable) != http.StatusBadGateway {
		t.Errorf("unavailable must map to 502")
	}
	if HTTPStatus("") != http.StatusInternalServerError {
		t.Errorf("unknown codes must map to 500")
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", NotFoundf("galaxy %d not found", 1), ErrorTypeNotFound},
		{"validation", Validation("bad"), ErrorTypeValidation},
		{"wrapped validation", fmt.Errorf("stage: %w", WrapValidation("bad engine", errors.New("xorshift"))), ErrorTypeValidation},
		{"forbidden", Forbidden("admin only"), ErrorTypeForbidden},
		{"method", MethodNotAllowed("PUT"), ErrorTypeMethodNotAllowed},
		{"plain", errors.New("boom"), ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetType(tt.err); got != tt.want {
				t.Errorf("GetType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapInternal("failed to insert gates", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable with errors.Is")
	}
	if err.Error() != "failed to insert gates: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := Validation("plain").Error(); got != "plain" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestWithStage(t *testing.T) {
	cause := errors.New("deadlock detected")
	tests := []struct {
		name string
		err  error
		want ErrorType
		msg  string
	}{
		{"plain", cause, ErrorTypeInternal, "stage gates: stage failed: deadlock detected"},
		{"validation", Validationf("unknown engine %q", "lcg"), ErrorTypeValidation, "stage gates: unknown engine \"lcg\""},
		{"conflict", fmt.Errorf("insert: %w", Conflictf("gate exists")), ErrorTypeConflict, "stage gates: gate exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithStage(tt.err, "gates")
			if GetType(err) != tt.want {
				t.Errorf("GetType = %s, want %s", GetType(err), tt.want)
			}
			if StageOf(err) != "gates" {
				t.Errorf("StageOf = %q", StageOf(err))
			}
			if err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
	if WithStage(nil, "gates") != nil {
		t.Error("WithStage(nil) should be nil")
	}
	if !errors.Is(WithStage(cause, "hubs"), cause) {
		t.Error("cause not reachable after tagging")
	}
	if StageOf(Validation("x")) != "" {
		t.Error("untagged error reports a stage")
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(errors.New("x")); ok {
		t.Error("plain error reported as AppError")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", NotFoundf("hub %d", 7)))
	if !ok || appErr.Message != "hub 7" {
		t.Errorf("AsAppError = %+v, %v", appErr, ok)
	}
}

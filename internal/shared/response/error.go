package response

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"galaxy-forge/internal/shared/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Stage   string `json:"stage,omitempty"`
}

var statusByType = map[errors.ErrorType]int{
	errors.ErrorTypeNotFound:         http.StatusNotFound,
	errors.ErrorTypeValidation:       http.StatusBadRequest,
	errors.ErrorTypeConflict:         http.StatusConflict,
	errors.ErrorTypeUnauthorized:     http.StatusUnauthorized,
	errors.ErrorTypeForbidden:        http.StatusForbidden,
	errors.ErrorTypeMethodNotAllowed: http.StatusMethodNotAllowed,
	errors.ErrorTypeExternal:         http.StatusServiceUnavailable,
	errors.ErrorTypeRateLimited:      http.StatusTooManyRequests,
	errors.ErrorTypeInternal:         http.StatusInternalServerError,
}

// Client faults log at debug.
var levelByType = map[errors.ErrorType]slog.Level{
	errors.ErrorTypeNotFound:         slog.LevelDebug,
	errors.ErrorTypeValidation:       slog.LevelDebug,
	errors.ErrorTypeMethodNotAllowed: slog.LevelDebug,
	errors.ErrorTypeConflict:         slog.LevelInfo,
	errors.ErrorTypeUnauthorized:     slog.LevelWarn,
	errors.ErrorTypeForbidden:        slog.LevelWarn,
	errors.ErrorTypeRateLimited:      slog.LevelWarn,
	errors.ErrorTypeExternal:         slog.LevelError,
	errors.ErrorTypeInternal:         slog.LevelError,
}

func statusFor(t errors.ErrorType) int {
	if code, ok := statusByType[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// clientMessage hides storage causes behind the AppError message for
// internal failures; other types are safe to echo.
func clientMessage(err error, t errors.ErrorType) string {
	if t != errors.ErrorTypeInternal {
		return err.Error()
	}
	if appErr, ok := errors.AsAppError(err); ok && appErr.Message != "" {
		if appErr.Stage != "" {
			return "stage " + appErr.Stage + ": " + appErr.Message
		}
		return appErr.Message
	}
	return "internal server error"
}

// Error logs err and writes it as JSON. Handlers and middleware report
// failures only through here.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	errorType := errors.GetType(err)
	statusCode := statusFor(errorType)
	stage := errors.StageOf(err)

	level, ok := levelByType[errorType]
	if !ok {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"error_type", errorType,
		"status_code", statusCode,
		"stage", stage,
		"error", err,
	)

	writeJSON(w, statusCode, ErrorResponse{
		Error:   string(errorType),
		Message: clientMessage(err, errorType),
		Code:    statusCode,
		Stage:   stage,
	})
}

// Success writes data as JSON with the given status. A nil data writes only
// the status.
func Success(w http.ResponseWriter, statusCode int, data any) {
	if data == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		return
	}
	writeJSON(w, statusCode, data)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// The status line is already out; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// Package respond writes the JSON bodies of the recipe API, including
// error bodies that never leak store or upstream details.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"recipe-box/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safeFragments mark messages that describe the caller's mistake and are fine to echo.
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"must not",
	"cannot be",
	"too long",
	"too short",
}

// SafeError echoes err only when it is a client error with a message safe to
// show. Anything else becomes "internal server error" and is logged.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	if msg, ok := UserMessage(err); ok && code < 500 {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

// UserMessage returns the message to show a user for err and whether it is
// safe to show at all. A ValidationError yields its bare message.
func UserMessage(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, safe := range safeFragments {
		if strings.Contains(lower, safe) {
			return msg, true
		}
	}
	return "", false
}

// Fail writes userMsg with code. A non-nil err is logged, sanitized, and
// never sent to the client.
func Fail(w http.ResponseWriter, code int, userMsg string, err error) {
	if err != nil {
		slog.Default().Error("request failed",
			slog.Int("code", code),
			slog.String("user_message", userMsg),
			slog.String("error", SanitizeError(err)))
	}
	JSON(w, code, map[string]string{"error": userMsg})
}

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/devplayground/playground/pkg/core"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Itoa converts an integer to a string for use in components.
func Itoa(n int) string {
	return strconv.Itoa(n)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"message": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Message: message})
}

// DecodeJSON reads a JSON body into v. Unknown fields are allowed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// StoreError maps store errors to a status and message. Unknown errors
// become 500 "Server error".
func StoreError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Snippet not found"
	case errors.Is(err, core.ErrAccountExists):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid Credentials"
	case errors.Is(err, core.ErrDuplicateName):
		return http.StatusConflict, "Code snippet with this name is already saved."
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// WriteStoreError writes the reply for a store error.
func WriteStoreError(w http.ResponseWriter, err error) {
	status, msg := StoreError(err)
	Error(w, status, msg)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}

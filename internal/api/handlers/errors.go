package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// XRPCError is the error body every Atlas endpoint returns
type XRPCError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes an XRPC error response
// errorType must be UpperCamelCase (InvalidRequest, AuthRequired, UpstreamError, ...)
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(XRPCError{
		Error:   errorType,
		Message: message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

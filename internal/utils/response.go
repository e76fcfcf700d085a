package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tickethub/internal/apperr"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Ref       string      `json:"ref,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, errMsg string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     errMsg,
		Timestamp: time.Now(),
	}
}

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps err's category to a status and writes the error envelope.
// Untyped errors come out as a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	resp := ErrorResponse(kind.String(), err.Error())
	resp.Code = kind.String()
	var e *apperr.Error
	if errors.As(err, &e) {
		resp.Ref = e.Ref
	}
	WriteJSON(w, apperr.HTTPStatus(kind), resp)
}

// Package httpx writes API responses in the uniform envelope used by every
// endpoint: {"success":true,"data":...,"error":null} on success, or
// {"success":false,"data":null,"error":{"code","message","details"}} on failure.
package httpx

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
	Meta    *ListMeta  `json:"meta,omitempty"`
}

// ListMeta carries pagination info for list endpoints.
type ListMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(env)
	if err != nil {
		// best-effort error response; avoid writing partial JSON
		http.Error(w, `{"success":false,"data":null,"error":{"code":"INTERNAL_ERROR","message":"encode error"}}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// JSONList writes a success envelope with pagination meta.
func JSONList(w http.ResponseWriter, status int, data any, meta ListMeta) {
	write(w, status, Envelope{Success: true, Data: data, Meta: &meta})
}

// JSONError writes a failure envelope. An empty code falls back on a
// conventional code for the status.
func JSONError(w http.ResponseWriter, status int, code, msg string, details any) {
	if code == "" {
		switch status {
		case http.StatusNotFound:
			code = "NOT_FOUND"
		case http.StatusBadRequest:
			code = "BAD_REQUEST"
		case http.StatusUnprocessableEntity:
			code = "VALIDATION_ERROR"
		default:
			code = "INTERNAL_ERROR"
		}
	}
	write(w, status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: msg, Details: details}})
}

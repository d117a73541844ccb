package core

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the error envelope every endpoint returns.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Error maps err onto an HTTP response. HTTPError values keep their status
// and message; anything else is a 500 with the error text attached.
func Error(w http.ResponseWriter, err error) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		body := errorBody{Message: httpErr.Message}
		if httpErr.Err != nil {
			body.Error = httpErr.Err.Error()
		}
		JSON(w, httpErr.Code, body)
		return
	}
	JSON(w, http.StatusInternalServerError, errorBody{
		Message: "internal server error",
		Error:   err.Error(),
	})
}

// DecodeJSON parses the request body into v, requiring an application/json
// content type. Failures come back as 400 HTTPErrors ready for Error.
func DecodeJSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return BadRequest("expected application/json request body")
		}
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return BadRequest("invalid request body").WithError(err)
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// apiResponse is the envelope every API endpoint responds with
type apiResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RequireMethod validates the HTTP method, writing a 405 when it mismatches
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// WriteJSON writes an enveloped success response with data
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	return writeEnvelope(w, apiResponse{
		Success: statusCode < http.StatusBadRequest,
		Status:  statusCode,
		Data:    data,
	})
}

// WriteSuccess writes an enveloped success response with a message only
func WriteSuccess(w http.ResponseWriter, message string) error {
	return writeEnvelope(w, apiResponse{
		Success: true,
		Status:  http.StatusOK,
		Message: message,
	})
}

// WriteError writes an enveloped error response
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return writeEnvelope(w, apiResponse{
		Success: false,
		Status:  statusCode,
		Error:   message,
	})
}

func writeEnvelope(w http.ResponseWriter, resp apiResponse) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	return json.NewEncoder(w).Encode(resp)
}

// DecodeAndValidate decodes a JSON request body into dst and runs struct
// validation. The returned error text is safe to show callers.
func DecodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("invalid field %s (%s)", errs[0].Field(), errs[0].Tag())
		}
		return err
	}
	return nil
}

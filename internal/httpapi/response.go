package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/f0rbit/media-timeline/internal/domainerr"
)

// validate runs struct-tag validation on decoded request bodies. A single
// shared instance is safe for concurrent use, per the validator package's
// own documentation.
var validate = validator.New()

// decodeAndValidate reads a JSON body into dst and checks its `validate`
// struct tags, collapsing either failure into one 400 response so handlers
// don't each repeat the same boilerplate.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

// errorBody matches spec.md §6.1's error shape: {error, message, details?}.
type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: code, Message: message})
}

// respondDomainErr maps a domainerr.Error (or any other error) to its
// outward HTTP status via domainerr.HTTPStatus, matching spec.md §6.1's
// "404 for not-found, 403 for wrong owner" authorization rule.
func respondDomainErr(w http.ResponseWriter, err error) {
	status := domainerr.HTTPStatus(err)
	code := "internal_error"
	message := "an unexpected error occurred"
	var derr *domainerr.Error
	if errors.As(err, &derr) {
		code = string(derr.Kind)
		message = derr.Error()
	}
	respondError(w, status, code, message)
}

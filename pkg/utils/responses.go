package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func ResponseJSON(w http.ResponseWriter, code int, status bool, message string, data, errors any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	// headers are gone by now, nothing useful to do with an encode error
	_ = json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errors,
	})
}

func ok(w http.ResponseWriter, code int, message string, data any) {
	ResponseJSON(w, code, true, message, data, nil)
}

func fail(w http.ResponseWriter, code int, message string, errors any) {
	ResponseJSON(w, code, false, message, nil, errors)
}

func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ok(w, http.StatusOK, message, data)
}

func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ok(w, http.StatusCreated, message, data)
}

// ResponseAccepted answers 202, used once an OTP or login step went through.
func ResponseAccepted(w http.ResponseWriter, message string, data any) {
	ok(w, http.StatusAccepted, message, data)
}

// ResponseRejected answers 200 with status=false. A wrong or stale OTP is an
// expected outcome, not a client fault.
func ResponseRejected(w http.ResponseWriter, message string) {
	fail(w, http.StatusOK, message, nil)
}

func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	fail(w, http.StatusBadRequest, message, errors)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	fail(w, http.StatusUnauthorized, message, nil)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	fail(w, http.StatusForbidden, message, nil)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	fail(w, http.StatusNotFound, message, nil)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	fail(w, http.StatusInternalServerError, message, nil)
}

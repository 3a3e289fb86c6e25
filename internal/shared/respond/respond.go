// Package respond writes the JSON envelope every endpoint uses:
// {success, message?, data?, errors?} plus count/total/pagination on lists.
package respond

import (
	"encoding/json"
	"math"
	"net/http"

	apperrors "github.com/sitrep-gov/platform/internal/shared/errors"
)

// production controls whether internal error detail is included in 500
// responses. Set once at startup.
var production bool

// SetProduction toggles production mode for error responses.
func SetProduction(p bool) {
	production = p
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Errors     any         `json:"errors,omitempty"`
	Error      string      `json:"error,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Total      *int        `json:"total,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// JSON writes a success envelope with data.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// Message writes a success envelope with a message and optional data.
func Message(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, envelope{Success: true, Message: message, Data: data})
}

// List writes a paginated list envelope. count is the number of items in
// this page, total the overall match count.
func List(w http.ResponseWriter, data any, count, total, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	write(w, http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Count:      &count,
		Total:      &total,
		Pagination: &Pagination{CurrentPage: page, TotalPages: totalPages},
	})
}

// Collection writes an unpaginated list envelope with a count.
func Collection(w http.ResponseWriter, data any, count int) {
	write(w, http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

// Error maps an error onto the envelope using the AppError taxonomy.
// Unknown errors become a 500; their detail is only exposed outside
// production.
func Error(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		env := envelope{Success: false, Message: appErr.Message}
		if len(appErr.Details) > 0 {
			env.Errors = appErr.Details
		}
		write(w, appErr.HTTPStatus, env)
		return
	}

	env := envelope{Success: false, Message: "internal server error"}
	if !production && err != nil {
		env.Error = err.Error()
	}
	write(w, http.StatusInternalServerError, env)
}

func write(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

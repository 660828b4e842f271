package server

import (
	"net/http"

	"github.com/teranos/pantry/errors"
)

// ErrRateLimited indicates the client exceeded its request budget
var ErrRateLimited = errors.New("rate limited")

// statusFor maps an error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error string   `json:"error"`
	Hints []string `json:"hints,omitempty"`
}

func newErrorBody(err error) errorBody {
	return errorBody{Error: err.Error(), Hints: errors.GetAllHints(err)}
}

package transporthttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
)

type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Codes registered in codeMap.
const (
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "permission_denied"
	CodeBadResponse        = "bad_response"
	CodeUnknownFailure     = "unknown_failure"
	CodeBadRequest         = "bad_request"
	CodePreconditionFailed = "failed_precondition"
	CodeNotImplemented     = "not_implemented"
)

var (
	codeMap = map[string]int{
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeBadResponse:        http.StatusBadGateway,
		CodeUnknownFailure:     http.StatusInternalServerError,
		CodeBadRequest:         http.StatusBadRequest,
		CodePreconditionFailed: http.StatusPreconditionFailed,
		CodeNotImplemented:     http.StatusNotImplemented,
	}
)

// WriteError writes a json response and pre-registered http status error
// always writes response even when producing an error
func WriteError(w http.ResponseWriter, message, code string) error {
	serverError := ServerError{
		Code:    code,
		Message: message,
	}
	var err error
	w.Header().Set("Content-Type", "application/json")
	sc, ok := codeMap[serverError.Code]
	if !ok {
		err = fmt.Errorf("code not registered %v", serverError)
		sc = http.StatusInternalServerError
	}
	w.WriteHeader(sc)

	enc := json.NewEncoder(w)

	if encErr := enc.Encode(serverError); encErr != nil {
		// allow encoding error to override the unregistered code error
		err = encErr
	}

	return err
}

// errorCode maps a service error onto a registered code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return CodeBadRequest
	case errors.Is(err, domain.ErrUnprocessable):
		return CodePreconditionFailed
	case errors.Is(err, domain.ErrNotImplemented):
		return CodeNotImplemented
	case errors.Is(err, domain.ErrTransport):
		return CodeBadResponse
	default:
		return CodeUnknownFailure
	}
}

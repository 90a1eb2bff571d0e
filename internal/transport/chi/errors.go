package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain"
)

// errorCode is the machine-readable code of an error response.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeUnauthorized     errorCode = "unauthorized"
	codeUnsupportedTool  errorCode = "unsupported_tool"
	codeDatabaseNotFound errorCode = "database_not_found"
	codeProvisionFailed  errorCode = "provision_failed"
	codeFetchFailed      errorCode = "fetch_failed"
	codeTimeout          errorCode = "timeout"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrInvalidParams, http.StatusBadRequest, codeValidationFailed),
	sentinelHandler(domain.ErrUnsupportedTool, http.StatusBadRequest, codeUnsupportedTool),
	sentinelHandler(domain.ErrDatabaseNotFound, http.StatusNotFound, codeDatabaseNotFound),
	sentinelHandler(domain.ErrProvisionFailed, http.StatusBadGateway, codeProvisionFailed),
	sentinelHandler(domain.ErrFetchFailed, http.StatusBadGateway, codeFetchFailed),
	sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Tool errors keep the tool name since the client chose it.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidParams,
		domain.ErrUnsupportedTool,
		domain.ErrDatabaseNotFound,
		domain.ErrProvisionFailed,
		domain.ErrFetchFailed,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if !errors.Is(err, s) {
			continue
		}
		var te *domain.ToolError
		if errors.As(err, &te) {
			return te.Tool + ": " + s.Error()
		}
		return s.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

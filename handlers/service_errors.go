package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/codeware/rag-chatbot/services"
	"github.com/codeware/rag-chatbot/utils"
)

// HandleServiceError maps domain errors to HTTP responses. Validation
// errors surface their message; transport and internal failures return a
// generic body so upstream details never leak to clients.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsValidationError(err):
		if writeErr := utils.WriteBadRequest(w, err.Error(), details); writeErr != nil {
			logger.Error("failed to write bad request response", zap.Error(writeErr))
		}

	case services.IsTransportError(err):
		logger.Error("upstream service error", zap.Error(err))
		if writeErr := utils.WriteBadGateway(w, "An upstream service is unavailable"); writeErr != nil {
			logger.Error("failed to write bad gateway response", zap.Error(writeErr))
		}

	case services.IsDataError(err):
		logger.Error("data error", zap.Error(err))
		if writeErr := utils.WriteInternalServerError(w, "An internal error occurred"); writeErr != nil {
			logger.Error("failed to write internal error response", zap.Error(writeErr))
		}

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		if writeErr := utils.WriteInternalServerError(w, "An internal error occurred"); writeErr != nil {
			logger.Error("failed to write internal error response", zap.Error(writeErr))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if writeErr := utils.WriteInternalServerError(w, "An unexpected error occurred"); writeErr != nil {
			logger.Error("failed to write internal error response", zap.Error(writeErr))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if writeErr := utils.WriteBadRequest(w, "Validation failed", details); writeErr != nil {
			logger.Error("failed to write validation error response", zap.Error(writeErr))
		}
		return
	}

	if writeErr := utils.WriteBadRequest(w, err.Error(), nil); writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}

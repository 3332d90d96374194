// Package handlers implements C7's admin HTTP surface (spec.md §6): reading
// and patching the application config and per-strategy config, and
// replaying their audit trails. Grounded on the teacher's OHLCVHandler --
// per-request correlation ID, a request-scoped logger, JSON envelopes -- but
// every endpoint here goes through configmanager.Manager instead of a
// database repository, since writes here are transactional patches with
// audit, not raw inserts.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ridopark/ta-signal-bot/internal/logger"
	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/pkg/api/types"
)

var validate = validator.New()

func correlatedLogger(r *http.Request) (zerolog.Logger, string) {
	correlationID := uuid.New().String()
	return logger.NewRequestLogger(correlationID, r.Method, r.URL.Path), correlationID
}

func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func writeEnvelope(w http.ResponseWriter, correlationID string, status int, data interface{}, metadata map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.Envelope{Success: true, Data: data, Metadata: metadata})
}

func writeError(w http.ResponseWriter, correlationID string, status int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorEnvelope{
		Success: false,
		Error:   types.ErrorBody{Code: code, Message: message, Details: details},
	})
}

// writeFromErr classifies err per spec.md §7's abstract taxonomy and writes
// the matching error envelope.
func writeFromErr(w http.ResponseWriter, correlationID string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		var mde *models.MarketDataError
		details := map[string]interface{}{}
		if errors.As(err, &mde) {
			details["field"] = mde.Field
		}
		writeError(w, correlationID, http.StatusUnprocessableEntity, types.ErrCodeValidation, err.Error(), details)
	case errors.Is(err, models.ErrConfigStoreUnavailable):
		writeError(w, correlationID, http.StatusServiceUnavailable, types.ErrCodeUnavailable, err.Error(), nil)
	default:
		writeError(w, correlationID, http.StatusInternalServerError, types.ErrCodeInternal, err.Error(), nil)
	}
}

func decodeErrorResponse(w http.ResponseWriter, correlationID string, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := map[string]interface{}{}
		for _, fe := range ve {
			details[fe.Field()] = fe.Tag()
		}
		writeError(w, correlationID, http.StatusBadRequest, types.ErrCodeValidation, "request body failed validation", details)
		return
	}
	writeError(w, correlationID, http.StatusBadRequest, types.ErrCodeBadRequest, "malformed request body: "+err.Error(), nil)
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/go-entulho/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFieldErrors(w http.ResponseWriter, msg string, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Fields: fields})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the request body into dst. Unknown fields are rejected so
// a typo in a form field name does not silently drop data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: fmt.Sprintf("JSON inválido: %v", err)}
	}
	return nil
}

func parseConfirm(r *http.Request) bool {
	ok, err := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return err == nil && ok
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var fieldErrs domain.FieldErrors
	var missing *domain.ErrMissingField
	var invalidLength *domain.ErrInvalidLength
	var invalidAmount *domain.ErrInvalidAmount
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	var duplicate *domain.ErrDuplicate
	var confirm *domain.ErrConfirmationRequired
	var persistence *domain.ErrPersistence

	switch {
	case errors.As(err, &fieldErrs):
		logger.Debug("form rejected", zap.String("error", err.Error()))
		writeFieldErrors(w, "Corrija os campos assinalados.", fieldErrs.Messages())
	case errors.As(err, &missing):
		writeFieldErrors(w, err.Error(), map[string]string{missing.Field: err.Error()})
	case errors.As(err, &invalidLength):
		writeFieldErrors(w, err.Error(), map[string]string{invalidLength.Field: err.Error()})
	case errors.As(err, &invalidAmount):
		writeFieldErrors(w, err.Error(), map[string]string{invalidAmount.Field: err.Error()})
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &duplicate):
		logger.Debug("duplicate resource", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, "Já existe um cliente com o NIF "+duplicate.Key)
	case errors.As(err, &confirm):
		writeError(w, http.StatusPreconditionRequired, err.Error())
	case errors.As(err, &persistence):
		logger.Error("persistence failure", zap.String("op", persistence.Op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Não foi possível guardar os dados. Tente novamente.")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

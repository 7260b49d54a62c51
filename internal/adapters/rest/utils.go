package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"rentals-service/internal/contracts"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

const maxBodyBytes = 1 << 20

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// writeUseCaseError переводит ошибку use case в HTTP-статус.
// Внутренние ошибки наружу не показываются.
func writeUseCaseError(w http.ResponseWriter, logger port.LoggerPort, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Problems: verr.Problems})
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrTokenInvalid):
		WriteJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmailInUse):
		WriteJSONError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("Unhandled use case error", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeValidated читает тело, проверяет его по JSON-схеме и декодирует в dst.
func decodeValidated(r *http.Request, schemaKey string, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := contracts.Validate(schemaKey, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &domain.ValidationError{Problems: []string{"invalid request body: " + err.Error()}}
	}
	return nil
}

// parseID проверяет, что идентификатор - uuid, и возвращает его каноничную запись.
// При ошибке ответ 400 уже отправлен.
func parseID(w http.ResponseWriter, logger port.LoggerPort, raw, name string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("Invalid id format", port.Fields{"param": name, "provided_id": raw})
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return "", false
	}
	return id.String(), true
}

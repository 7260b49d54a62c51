package rest

import (
	"net/http"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/contracts"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/port/usecases_port"
)

type AuthHandler struct {
	registerUC usecases_port.RegisterUserUseCasePort
	loginUC    usecases_port.LoginUserUseCasePort
}

func NewAuthHandler(registerUC usecases_port.RegisterUserUseCasePort, loginUC usecases_port.LoginUserUseCasePort) *AuthHandler {
	return &AuthHandler{registerUC: registerUC, loginUC: loginUC}
}

// Register обрабатывает POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Register"})

	var req RegisterUserRequest
	if err := decodeValidated(r, contracts.RegisterUserRequestV1, &req); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	result, err := h.registerUC.Execute(r.Context(), req.toRegistration())
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, toAuthResponse(result))
}

// Login обрабатывает POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Login"})

	var req LoginUserRequest
	if err := decodeValidated(r, contracts.LoginUserRequestV1, &req); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	result, err := h.loginUC.Execute(r.Context(), req.Email, req.Password)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toAuthResponse(result))
}

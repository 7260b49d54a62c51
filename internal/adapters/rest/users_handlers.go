package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/contracts"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/port/usecases_port"
)

type UsersHandler struct {
	getUC    usecases_port.GetUserUseCasePort
	updateUC usecases_port.UpdateUserUseCasePort
	deleteUC usecases_port.DeleteUserUseCasePort
	browseUC usecases_port.BrowseUsersUseCasePort
}

func NewUsersHandler(
	getUC usecases_port.GetUserUseCasePort,
	updateUC usecases_port.UpdateUserUseCasePort,
	deleteUC usecases_port.DeleteUserUseCasePort,
	browseUC usecases_port.BrowseUsersUseCasePort,
) *UsersHandler {
	return &UsersHandler{getUC: getUC, updateUC: updateUC, deleteUC: deleteUC, browseUC: browseUC}
}

// GetProfile обрабатывает GET /api/v1/profile
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.getUser(w, r, selfID(r))
}

// UpdateProfile обрабатывает PUT /api/v1/profile
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, selfID(r))
}

// GetUser обрабатывает GET /api/v1/users/{userID}
func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetUser"})
	if userID, ok := parseID(w, logger, chi.URLParam(r, "userID"), "userID"); ok {
		h.getUser(w, r, userID)
	}
}

// UpdateUser обрабатывает PUT /api/v1/users/{userID}
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdateUser"})
	if userID, ok := parseID(w, logger, chi.URLParam(r, "userID"), "userID"); ok {
		h.updateUser(w, r, userID)
	}
}

// DeleteUser обрабатывает DELETE /api/v1/users/{userID}
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteUser"})
	userID, ok := parseID(w, logger, chi.URLParam(r, "userID"), "userID")
	if !ok {
		return
	}
	logger = logger.WithFields(port.Fields{"target_user_id": userID})

	if err := h.deleteUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), userID); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BrowseUsers обрабатывает GET /api/v1/users
func (h *UsersHandler) BrowseUsers(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "BrowseUsers"})

	page, err := h.browseUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), r.URL.Query().Get("q"), parseSort(r))
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	resp := UsersPageResponse{
		Data:    make([]UserResponse, len(page.Users)),
		Total:   page.Total,
		Loading: page.Loading,
		Error:   page.Err,
		Sort:    toSortResponse(page.Sort),
	}
	for i, u := range page.Users {
		resp.Data[i] = toUserResponse(u)
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

func (h *UsersHandler) getUser(w http.ResponseWriter, r *http.Request, userID string) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetUser", "target_user_id": userID})

	user, err := h.getUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), userID)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toUserResponse(*user))
}

func (h *UsersHandler) updateUser(w http.ResponseWriter, r *http.Request, userID string) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdateUser", "target_user_id": userID})

	var req UpdateProfileRequest
	if err := decodeValidated(r, contracts.UpdateProfileRequestV1, &req); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	user, err := h.updateUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), userID, update)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toUserResponse(*user))
}

func selfID(r *http.Request) string {
	if session := contextkeys.SessionFromContext(r.Context()); session != nil {
		return session.UserID
	}
	return ""
}

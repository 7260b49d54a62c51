package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/contracts"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/port/usecases_port"
)

type FavoritesHandler struct {
	addUC    usecases_port.AddFavoriteUseCasePort
	removeUC usecases_port.RemoveFavoriteUseCasePort
	listUC   usecases_port.ListFavoriteIDsUseCasePort
}

func NewFavoritesHandler(
	addUC usecases_port.AddFavoriteUseCasePort,
	removeUC usecases_port.RemoveFavoriteUseCasePort,
	listUC usecases_port.ListFavoriteIDsUseCasePort,
) *FavoritesHandler {
	return &FavoritesHandler{addUC: addUC, removeUC: removeUC, listUC: listUC}
}

// GetFavoriteIDs обрабатывает GET /api/v1/favorites
func (h *FavoritesHandler) GetFavoriteIDs(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetFavoriteIDs"})

	ids, err := h.listUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()))
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, FavoriteIDsResponse{IDs: ids})
}

// AddToFavorites обрабатывает POST /api/v1/favorites
func (h *FavoritesHandler) AddToFavorites(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddToFavorites"})

	var req AddFavoriteRequest
	if err := decodeValidated(r, contracts.AddFavoriteRequestV1, &req); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	listingID, ok := parseID(w, logger, req.ListingID, "flatId")
	if !ok {
		return
	}

	if err := h.addUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), listingID); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFromFavorites обрабатывает DELETE /api/v1/favorites/{flatID}
func (h *FavoritesHandler) RemoveFromFavorites(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RemoveFromFavorites"})

	listingID, ok := parseID(w, logger, chi.URLParam(r, "flatID"), "flatID")
	if !ok {
		return
	}

	if err := h.removeUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), listingID); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

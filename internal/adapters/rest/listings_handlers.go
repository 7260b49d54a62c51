package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/contracts"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/port/usecases_port"
)

type ListingsHandler struct {
	browseUC  usecases_port.BrowseListingsUseCasePort
	optionsUC usecases_port.GetFilterOptionsUseCasePort
	getUC     usecases_port.GetListingUseCasePort
	createUC  usecases_port.CreateListingUseCasePort
	deleteUC  usecases_port.DeleteListingUseCasePort
}

func NewListingsHandler(
	browseUC usecases_port.BrowseListingsUseCasePort,
	optionsUC usecases_port.GetFilterOptionsUseCasePort,
	getUC usecases_port.GetListingUseCasePort,
	createUC usecases_port.CreateListingUseCasePort,
	deleteUC usecases_port.DeleteListingUseCasePort,
) *ListingsHandler {
	return &ListingsHandler{
		browseUC:  browseUC,
		optionsUC: optionsUC,
		getUC:     getUC,
		createUC:  createUC,
		deleteUC:  deleteUC,
	}
}

// BrowseListings обрабатывает GET /api/v1/flats
func (h *ListingsHandler) BrowseListings(w http.ResponseWriter, r *http.Request) {
	h.browse(w, r, domain.NewestFirst(domain.CollectionListings), "BrowseListings")
}

// MyListings обрабатывает GET /api/v1/my-flats: тот же pipeline по объявлениям владельца.
func (h *ListingsHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	session := contextkeys.SessionFromContext(r.Context())
	if session == nil {
		WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	query := domain.NewestFirst(domain.CollectionListings)
	query.OwnerID = session.UserID
	h.browse(w, r, query, "MyListings")
}

func (h *ListingsHandler) browse(w http.ResponseWriter, r *http.Request, query domain.CollectionQuery, name string) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": name})
	filters, sort := parseListingQuery(r)

	page, err := h.browseUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), query, filters, sort)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingsPageResponse(page))
}

// GetFilterOptions обрабатывает GET /api/v1/flats/filters/options
func (h *ListingsHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetFilterOptions"})

	options, err := h.optionsUC.Execute(r.Context())
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, FilterOptionsResponse{
		Cities: options.Cities,
		Sliders: SlidersResponse{
			Price: [2]float64{options.Sliders.PriceMin, options.Sliders.PriceMax},
			Area:  [2]float64{options.Sliders.AreaMin, options.Sliders.AreaMax},
		},
	})
}

// GetListing обрабатывает GET /api/v1/flats/{flatID}
func (h *ListingsHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetListing"})
	listingID, ok := parseID(w, logger, chi.URLParam(r, "flatID"), "flatID")
	if !ok {
		return
	}
	logger = logger.WithFields(port.Fields{"listing_id": listingID})

	listing, err := h.getUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), listingID)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(*listing))
}

// CreateListing обрабатывает POST /api/v1/flats
func (h *ListingsHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateListing"})

	var req CreateListingRequest
	if err := decodeValidated(r, contracts.CreateListingRequestV1, &req); err != nil {
		logger.Warn("Invalid create listing request", port.Fields{"error": err.Error()})
		writeUseCaseError(w, logger, err)
		return
	}

	listing, err := h.createUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), req.toDraft())
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	logger.Info("Listing created", port.Fields{"listing_id": listing.ID})
	RespondWithJSON(w, http.StatusCreated, toListingResponse(*listing))
}

// DeleteListing обрабатывает DELETE /api/v1/flats/{flatID}
func (h *ListingsHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteListing"})
	listingID, ok := parseID(w, logger, chi.URLParam(r, "flatID"), "flatID")
	if !ok {
		return
	}
	logger = logger.WithFields(port.Fields{"listing_id": listingID})

	if err := h.deleteUC.Execute(r.Context(), contextkeys.SessionFromContext(r.Context()), listingID); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

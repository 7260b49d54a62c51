package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/port/usecases_port"
	"rentals-service/internal/core/view"
)

const keepAliveInterval = 15 * time.Second

// StreamHandler держит живое представление объявлений на каждое SSE-соединение.
type StreamHandler struct {
	watchUC   usecases_port.WatchListingsUseCasePort
	keepAlive time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

func NewStreamHandler(watchUC usecases_port.WatchListingsUseCasePort) *StreamHandler {
	return &StreamHandler{
		watchUC:   watchUC,
		keepAlive: keepAliveInterval,
		closing:   make(chan struct{}),
	}
}

// Shutdown завершает все открытые потоки. Без этого остановка сервера
// ждала бы, пока клиенты отключатся сами.
func (h *StreamHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// StreamListings обрабатывает GET /api/v1/flats/stream
func (h *StreamHandler) StreamListings(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "StreamListings"})

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	session := contextkeys.SessionFromContext(r.Context())
	query := domain.NewestFirst(domain.CollectionListings)
	if parseBool(r.URL.Query().Get("mine")) && session != nil {
		query.OwnerID = session.UserID
	}
	filters, sort := parseListingQuery(r)

	v, err := h.watchUC.Execute(r.Context(), session, query, filters, sort)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	defer v.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger.Info("New client subscribing to SSE listings stream", nil)

	// первое состояние сразу; уведомление от первого пересчета уже учтено в нем
	select {
	case <-v.Changes():
	default:
	}
	if !h.sendState(w, flusher, v.State()) {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case _, open := <-v.Changes():
			if !open {
				return
			}
			state := v.State()
			if state.Err != "" {
				// поток не закрываем: следующий снимок источника сбросит ошибку
				logger.Warn("Listings source failed, waiting for recovery", port.Fields{"message": state.Err})
			}
			if !h.sendState(w, flusher, state) {
				logger.Warn("Error writing to client, closing SSE connection", nil)
				return
			}

		case <-ticker.C:
			// строки, начинающиеся с двоеточия, - комментарии SSE, клиент их игнорирует
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			logger.Info("SSE client disconnected.", nil)
			return

		case <-h.closing:
			logger.Info("Server is shutting down, closing SSE connection", nil)
			return
		}
	}
}

func (h *StreamHandler) sendState(w http.ResponseWriter, flusher http.Flusher, state view.ListingsState) bool {
	event := "listings"
	if state.Err != "" {
		event = "error"
	}
	payload, err := json.Marshal(ListingsPageResponse{
		Data:    toListingResponses(state.Rendered),
		Total:   state.Total,
		Loading: state.Loading,
		Error:   state.Err,
		Cities:  state.Cities,
		Filters: toFiltersResponse(state.Filters),
		Sort:    toSortResponse(state.Sort),
	})
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

package constants

// Обменник доменных событий по умолчанию
const (
	EventsExchange     = "rentals.events"
	EventsExchangeType = "topic"
)

// Ключи маршрутизации
const (
	RoutingKeyListingCreated = "listing.created"
	RoutingKeyListingDeleted = "listing.deleted"
	RoutingKeyUserRegistered = "user.registered"
	RoutingKeyUserDeleted    = "user.deleted"
)

// Заголовки сообщений
const (
	HeaderTraceID      = "x-trace-id"
	HeaderEventType    = "event-type"
	HeaderEventVersion = "event-version"
)

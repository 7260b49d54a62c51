package domain

import "time"

// Доменные события, публикуемые после успешной записи.

type ListingCreatedEvent struct {
	ListingID string    `json:"flatId"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"flatName"`
	City      string    `json:"city"`
	RentPrice float64   `json:"rentPrice"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListingDeletedEvent struct {
	ListingID string    `json:"flatId"`
	OwnerID   string    `json:"ownerId"`
	DeletedBy string    `json:"deletedBy"`
	DeletedAt time.Time `json:"deletedAt"`
}

type UserRegisteredEvent struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserDeletedEvent struct {
	UserID    string    `json:"userId"`
	DeletedBy string    `json:"deletedBy"`
	DeletedAt time.Time `json:"deletedAt"`
}

package store

import "tripflow/pkg/domain"

// Store defines persistence operations for trips and messages.
// Lookups report absence through the bool return, not an error.
type Store interface {
	// trips
	CreateTrip(trip domain.Trip) (domain.Trip, error)
	GetTrip(id string) (domain.Trip, bool, error)
	ListTrips() ([]domain.Trip, error)
	UpdateTripTitle(id string, title string) error
	DeleteTrip(id string) error

	// messages
	AppendMessage(msg domain.Message) (domain.Message, error)
	ListMessages(tripID string) ([]domain.Message, error)
}

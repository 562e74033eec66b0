package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripflow/pkg/domain"
)

// MemoryStore keeps trips and messages in-process. It backs tests and
// storeless development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[string]domain.Trip
	messages map[string][]domain.Message // trip ID -> messages in insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:    make(map[string]domain.Trip),
		messages: make(map[string][]domain.Message),
	}
}

// CreateTrip stores a new trip, filling in id and timestamps.
func (m *MemoryStore) CreateTrip(trip domain.Trip) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	trip.CreatedAt = now
	trip.UpdatedAt = now
	m.trips[trip.ID] = trip
	return trip, nil
}

// GetTrip returns one trip by ID.
func (m *MemoryStore) GetTrip(id string) (domain.Trip, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	return trip, ok, nil
}

// ListTrips returns all trips, newest first.
func (m *MemoryStore) ListTrips() ([]domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Trip, 0, len(m.trips))
	for _, trip := range m.trips {
		res = append(res, trip)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// UpdateTripTitle overwrites the title of an existing trip.
func (m *MemoryStore) UpdateTripTitle(id string, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil
	}
	trip.Title = title
	trip.UpdatedAt = time.Now().UTC()
	m.trips[id] = trip
	return nil
}

// DeleteTrip removes a trip and its messages.
func (m *MemoryStore) DeleteTrip(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, id)
	delete(m.messages, id)
	return nil
}

// AppendMessage records a message, filling in id, default type and timestamp.
func (m *MemoryStore) AppendMessage(msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.MessageType == "" {
		msg.MessageType = domain.TypeText
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.messages[msg.TripID] = append(m.messages[msg.TripID], msg)
	return msg, nil
}

// ListMessages returns the messages of a trip in chronological order.
func (m *MemoryStore) ListMessages(tripID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[tripID]
	res := make([]domain.Message, len(msgs))
	copy(res, msgs)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

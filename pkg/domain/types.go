package domain

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeText          MessageType = "text"
	TypeItineraryCard MessageType = "itinerary_card"
	TypePackingCard   MessageType = "packing_card"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PlaceholderUserID stands in until real accounts exist.
const PlaceholderUserID = "dummy"

// Trip is one planned journey. JSON field names follow the row-store column
// names because clients consume rows as-is.
type Trip struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is one turn of a trip conversation, immutable once written.
// Creation time is the conversation replay order within a trip.
type Message struct {
	ID          string          `json:"id"`
	TripID      string          `json:"trip_id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	MessageType MessageType     `json:"message_type"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ChatMessage is one entry of the client-supplied conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

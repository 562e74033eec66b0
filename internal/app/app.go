package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"tripflow/internal/util"
	"tripflow/pkg/ai"
	"tripflow/pkg/domain"
	"tripflow/pkg/store"
)

const defaultTripTitle = "새 여행"

// titleSnippetLimit caps how much of the assistant reply feeds the title
// prompt.
const titleSnippetLimit = 200

// Config holds runtime configuration for the core application.
type Config struct {
	Store           store.Store // takes precedence over DatabaseURL
	Generator       ai.Generator
	DatabaseURL     string
	GeminiAPIKey    string
	GenerationModel string
}

// App wires storage and generation into the trip-chat operations. Both
// collaborators are optional: without a store all persistence is skipped,
// without a generator the chat and title operations fail with
// ErrGeneratorNotConfigured.
type App struct {
	store     store.Store
	generator ai.Generator
	titles    singleflight.Group
}

// New constructs the application from configuration.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil && cfg.DatabaseURL != "" {
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	generator := cfg.Generator
	if generator == nil && strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey, ai.WithModel(cfg.GenerationModel))
		if err != nil {
			return nil, err
		}
		generator = gemini
	}
	return &App{store: dataStore, generator: generator}, nil
}

// HasGenerator reports whether a generation provider is configured.
func (a *App) HasGenerator() bool { return a.generator != nil }

// HasStore reports whether a persistence backend is configured.
func (a *App) HasStore() bool { return a.store != nil }

// StreamChat runs one chat turn: the inbound message is persisted
// best-effort, then the reply streams through onText fragment by fragment.
// The full reply is returned once the stream is exhausted; on mid-stream
// failure the fragments delivered so far are returned with the error.
func (a *App) StreamChat(ctx context.Context, message string, history []domain.ChatMessage, tripID string, onText func(string) error) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	if a.generator == nil {
		return "", ErrGeneratorNotConfigured
	}

	// The user message write must not block or fail the turn.
	if tripID != "" && a.store != nil {
		if _, err := a.store.AppendMessage(domain.Message{
			TripID:      tripID,
			Role:        domain.RoleUser,
			Content:     message,
			MessageType: domain.TypeText,
		}); err != nil {
			util.LoggerFromContext(ctx).Warn("failed to persist user message", "trip_id", tripID, "err", err)
		}
	}

	return a.generator.StreamChat(ctx, ai.SystemPrompt, history, message, onText)
}

// SaveAssistantReply classifies the accumulated reply and persists it as the
// assistant message of the turn. It is a no-op without a trip id or store.
func (a *App) SaveAssistantReply(ctx context.Context, tripID, reply string) error {
	if tripID == "" || a.store == nil {
		return nil
	}
	messageType, metadata := classifyReply(reply)
	if _, err := a.store.AppendMessage(domain.Message{
		TripID:      tripID,
		Role:        domain.RoleAssistant,
		Content:     reply,
		MessageType: messageType,
		Metadata:    metadata,
	}); err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}
	return nil
}

// AutoTitle produces a short trip title from the opening exchange and writes
// it onto the trip best-effort. Concurrent calls for one trip are collapsed
// into a single generation.
func (a *App) AutoTitle(ctx context.Context, tripID, userMessage, assistantMessage string) (string, error) {
	if strings.TrimSpace(tripID) == "" {
		return "", ErrTripNotFound
	}
	if a.generator == nil {
		return "", ErrGeneratorNotConfigured
	}
	title, err, _ := a.titles.Do(tripID, func() (any, error) {
		snippet := []rune(assistantMessage)
		if len(snippet) > titleSnippetLimit {
			snippet = snippet[:titleSnippetLimit]
		}
		prompt := fmt.Sprintf(ai.TitlePromptFormat, userMessage, string(snippet))
		generated, err := a.generator.GenerateText(ctx, "", prompt)
		if err != nil {
			return "", fmt.Errorf("generate title: %w", err)
		}
		generated = strings.TrimSpace(generated)
		if a.store != nil {
			if err := a.store.UpdateTripTitle(tripID, generated); err != nil {
				util.LoggerFromContext(ctx).Warn("failed to update trip title", "trip_id", tripID, "err", err)
			}
		}
		return generated, nil
	})
	if err != nil {
		return "", err
	}
	return title.(string), nil
}

// CreateTrip stores a new trip with defaults applied.
func (a *App) CreateTrip(title, destination, startDate, endDate string) (domain.Trip, error) {
	if a.store == nil {
		return domain.Trip{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(title) == "" {
		title = defaultTripTitle
	}
	return a.store.CreateTrip(domain.Trip{
		Title:       title,
		Destination: destination,
		StartDate:   startDate,
		EndDate:     endDate,
		UserID:      domain.PlaceholderUserID,
	})
}

// GetTrip returns one trip by id.
func (a *App) GetTrip(id string) (domain.Trip, error) {
	if a.store == nil {
		return domain.Trip{}, ErrStoreNotConfigured
	}
	trip, ok, err := a.store.GetTrip(id)
	if err != nil {
		return domain.Trip{}, err
	}
	if !ok {
		return domain.Trip{}, ErrTripNotFound
	}
	return trip, nil
}

// ListTrips returns all trips, newest first.
func (a *App) ListTrips() ([]domain.Trip, error) {
	if a.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return a.store.ListTrips()
}

// DeleteTrip removes a trip and its messages.
func (a *App) DeleteTrip(id string) error {
	if a.store == nil {
		return ErrStoreNotConfigured
	}
	return a.store.DeleteTrip(id)
}

// ListMessages returns the conversation of a trip in chronological order.
func (a *App) ListMessages(tripID string) ([]domain.Message, error) {
	if a.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return a.store.ListMessages(tripID)
}

// SaveMessage persists a message supplied by the client.
func (a *App) SaveMessage(msg domain.Message) (domain.Message, error) {
	if a.store == nil {
		return domain.Message{}, ErrStoreNotConfigured
	}
	if msg.MessageType == "" {
		msg.MessageType = domain.TypeText
	}
	return a.store.AppendMessage(msg)
}

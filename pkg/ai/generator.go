package ai

import (
	"context"

	"tripflow/pkg/domain"
)

// TextGenerator produces a single completion from a system prompt and user
// prompt. Used for one-shot calls such as trip titles.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChatStreamer runs one multi-turn chat completion and delivers the reply
// incrementally. onText is called once per fragment in generation order; the
// full concatenation is returned after the stream is exhausted. When the
// stream fails midway, the fragments delivered so far are returned alongside
// the error so callers can still account for them.
type ChatStreamer interface {
	StreamChat(ctx context.Context, systemPrompt string, history []domain.ChatMessage, message string, onText func(string) error) (string, error)
}

// Generator is the full provider surface the app layer depends on.
type Generator interface {
	TextGenerator
	ChatStreamer
}

package app

import (
	"encoding/json"
	"strings"

	"tripflow/pkg/domain"
)

// Assistant replies may embed structured payloads as fenced JSON blocks. The
// first itinerary block wins over any packing block; within a type only the
// first occurrence is considered.
const (
	itineraryFence = "```itinerary"
	packingFence   = "```packing"
	closingFence   = "```"
)

// classifyReply derives the message type and metadata of an assistant reply.
// A recognized block with malformed JSON keeps the plain text type with no
// metadata; classification never fails the turn.
func classifyReply(reply string) (domain.MessageType, json.RawMessage) {
	if raw, ok := fencedBlock(reply, itineraryFence); ok {
		if json.Valid(raw) {
			return domain.TypeItineraryCard, raw
		}
		return domain.TypeText, nil
	}
	if raw, ok := fencedBlock(reply, packingFence); ok {
		if json.Valid(raw) {
			return domain.TypePackingCard, raw
		}
		return domain.TypeText, nil
	}
	return domain.TypeText, nil
}

// fencedBlock extracts the payload between the first occurrence of fence and
// the next closing fence.
func fencedBlock(reply, fence string) (json.RawMessage, bool) {
	start := strings.Index(reply, fence)
	if start < 0 {
		return nil, false
	}
	rest := reply[start+len(fence):]
	end := strings.Index(rest, closingFence)
	if end < 0 {
		return nil, false
	}
	payload := strings.TrimSpace(rest[:end])
	if payload == "" {
		return nil, false
	}
	return json.RawMessage(payload), true
}

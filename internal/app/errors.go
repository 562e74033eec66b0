package app

import "errors"

var (
	// ErrEmptyMessage indicates the chat request carried no message text.
	ErrEmptyMessage           = errors.New("message is required")
	ErrGeneratorNotConfigured = errors.New("generation provider not configured")
	ErrStoreNotConfigured     = errors.New("store not configured")
	ErrTripNotFound           = errors.New("trip not found")
)

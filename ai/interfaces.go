package ai

import (
	"context"

	"github.com/poiesic/imagecat/core"
)

// Categorizer suggests taxonomy categories for a single image.
// Implementations must be thread-safe for concurrent use.
type Categorizer interface {
	// Categorize analyzes the image in req and returns the categories it
	// believes apply. Returned paths are always members of req.Taxonomy.
	// Errors wrapping ErrMissingCredential or ErrInvalidCredential are
	// configuration failures and will not succeed on retry.
	Categorize(ctx context.Context, req Request) (*core.Suggestion, error)
}

// Provider owns a Categorizer and its underlying client.
type Provider interface {
	// Categorizer returns the image categorization service.
	// The returned Categorizer is safe for concurrent use.
	Categorizer() Categorizer

	// Model identifies the model answering requests. It is part of
	// suggestion cache keys.
	Model() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

package retrieval

import (
	"context"

	"github.com/techrealm/programdex/internal/domain/search/result"
)

// Responder turns ranked programs into a chat reply.
// Implementations may fail; the engine falls back to the deterministic summary.
type Responder interface {
	Respond(ctx context.Context, query string, results []result.Result) (string, error)
}

package health

import (
	"context"

	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ResponderChecker checks the generative responder backend.
type ResponderChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusReporter reports the published retrieval model.
type CorpusReporter interface {
	Stats() retrieval.Stats
}

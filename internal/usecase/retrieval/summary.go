package retrieval

import (
	"context"

	"github.com/techrealm/programdex/internal/domain/search/result"
	"github.com/techrealm/programdex/internal/domain/summary"
)

// SummaryResponder replies with the deterministic summary. It never fails.
type SummaryResponder struct{}

// Respond implements Responder.
func (SummaryResponder) Respond(_ context.Context, _ string, results []result.Result) (string, error) {
	return summary.Compose(results), nil
}

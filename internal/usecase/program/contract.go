package program

import (
	"context"

	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// Repository defines the storage contract for programs.
type Repository interface {
	Upsert(ctx context.Context, p *domprog.Program) (bool, error)
	SaveMany(ctx context.Context, programs []domprog.Program) error
	Get(ctx context.Context, id string) (domprog.Program, error)
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]domprog.Program, error)
}

// Refitter rebuilds the retrieval model from a full catalog.
type Refitter interface {
	Refit(ctx context.Context, programs []domprog.Program) retrieval.Stats
}

// Scraper fetches program details from a program's public page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (domprog.Details, error)
}

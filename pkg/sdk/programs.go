package programdex

import (
	"context"
	"fmt"
	"io"
	"time"

	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/transport/csvio"
)

// ProgramService manages the program catalog.
type ProgramService struct {
	svc programUseCase
	obs *observer
}

// List returns one page of the catalog. Non-positive page or perPage use the defaults.
func (s *ProgramService) List(ctx context.Context, page, perPage int) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.list", start, err) }()

	p, err := s.svc.List(ctx, page, perPage)
	if err != nil {
		return Page{}, fmt.Errorf("list programs: %w", err)
	}
	return pageFromDomain(p), nil
}

// Create adds a program. An empty ID is generated; ScrapedAt is always stamped.
// Returns ErrProgramExists when the ID is taken.
func (s *ProgramService) Create(ctx context.Context, p Program) (_ Program, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.create", start, err) }()

	d := programToDomain(&p)
	created, err := s.svc.Create(ctx, d.Fields())
	if err != nil {
		return Program{}, fmt.Errorf("create program: %w", err)
	}
	return programFromDomain(&created), nil
}

// Get returns a program by ID.
func (s *ProgramService) Get(ctx context.Context, id string) (_ Program, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.get", start, err) }()

	p, err := s.svc.Get(ctx, id)
	if err != nil {
		return Program{}, fmt.Errorf("get program: %w", err)
	}
	return programFromDomain(&p), nil
}

// Update overwrites the columns named in patch.
func (s *ProgramService) Update(ctx context.Context, id string, patch ProgramPatch) (_ Program, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.update", start, err) }()

	p, err := s.svc.Update(ctx, id, patch)
	if err != nil {
		return Program{}, fmt.Errorf("update program: %w", err)
	}
	return programFromDomain(&p), nil
}

// Delete removes a program by ID.
func (s *ProgramService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.delete", start, err) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

// Find does a case-insensitive substring match. An empty field searches
// name, university, degree type and country.
func (s *ProgramService) Find(ctx context.Context, query, field string) (_ []Program, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.find", start, err) }()

	found, err := s.svc.Search(ctx, query, field)
	if err != nil {
		return nil, fmt.Errorf("find programs: %w", err)
	}
	return programsFromDomain(found), nil
}

// Import upserts programs in bulk. Rows without an ID get one generated.
func (s *ProgramService) Import(ctx context.Context, programs []Program) (_ ImportResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.import", start, err) }()

	rows := make([]domprog.Program, len(programs))
	for i := range programs {
		rows[i] = programToDomain(&programs[i])
	}
	res, err := s.svc.Import(ctx, rows)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import programs: %w", err)
	}
	return ImportResult{Imported: res.Imported, Total: res.Total}, nil
}

// ImportCSV reads a program CSV with a header row and imports it.
func (s *ProgramService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, err := csvio.ReadPrograms(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	res, err := s.svc.Import(ctx, rows)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import programs: %w", err)
	}
	return ImportResult{Imported: res.Imported, Total: res.Total}, nil
}

// Export returns the whole catalog.
func (s *ProgramService) Export(ctx context.Context) (_ []Program, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.export", start, err) }()

	all, err := s.svc.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export programs: %w", err)
	}
	return programsFromDomain(all), nil
}

// ExportCSV writes the whole catalog as CSV.
func (s *ProgramService) ExportCSV(ctx context.Context, w io.Writer) error {
	all, err := s.svc.Export(ctx)
	if err != nil {
		return fmt.Errorf("export programs: %w", err)
	}
	return csvio.WritePrograms(w, all)
}

// Retrain refits the retrieval model on the stored catalog.
func (s *ProgramService) Retrain(ctx context.Context) (_ Stats, err error) {
	start := time.Now()
	defer func() { s.obs.observe("programs.retrain", start, err) }()

	st, err := s.svc.Retrain(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("retrain: %w", err)
	}
	return statsFromDomain(st), nil
}

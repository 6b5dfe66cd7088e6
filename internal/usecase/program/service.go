package program

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/logger"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// Pagination defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Auto-scrape batch bounds.
const (
	DefaultAutoScrape = 50
	MaxAutoScrape     = 500
)

// searchColumns are matched when no field is named.
var searchColumns = []string{
	domprog.ColName, domprog.ColUniversity, domprog.ColDegreeType, domprog.ColCountry,
}

// Page is one slice of the catalog.
type Page struct {
	Programs   []domprog.Program
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int
	Total    int
}

// Service manages the program catalog and keeps the retrieval model in step with it.
type Service struct {
	repo         Repository
	engine       Refitter
	scraper      Scraper
	refitOnWrite bool
	now          func() time.Time
	newID        func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithRefitOnWrite refits the retrieval model after every catalog write.
func WithRefitOnWrite(on bool) Option {
	return func(s *Service) { s.refitOnWrite = on }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides program id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// New creates a program service. scraper can be nil, which disables Enrich.
func New(repo Repository, engine Refitter, scraper Scraper, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		engine:  engine,
		scraper: scraper,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns one page of the catalog. page is 1-based; out-of-range pages are empty.
func (s *Service) List(ctx context.Context, page, perPage int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("list programs: %w", err)
	}

	total := len(all)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	return Page{
		Programs:   all[start:end],
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Create adds a program from raw column values. Unknown columns are ignored,
// the id is generated when absent and scraped_at is always stamped.
func (s *Service) Create(ctx context.Context, fields map[string]string) (domprog.Program, error) {
	p := domprog.FromFields(fields)
	if p.ID == "" {
		p.ID = s.newID()
	}
	p.ScrapedAt = s.now().UTC().Format(time.RFC3339)

	p, err := domprog.New(p)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	if _, err := s.repo.Get(ctx, p.ID); err == nil {
		return domprog.Program{}, domain.ErrProgramExists
	} else if !errors.Is(err, domain.ErrProgramNotFound) {
		return domprog.Program{}, fmt.Errorf("check program: %w", err)
	}

	if _, err := s.repo.Upsert(ctx, &p); err != nil {
		return domprog.Program{}, fmt.Errorf("save program: %w", err)
	}
	s.afterWrite(ctx)
	return p, nil
}

// Get returns a program by id.
func (s *Service) Get(ctx context.Context, id string) (domprog.Program, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

// Update overwrites the given columns. The id cannot change.
func (s *Service) Update(ctx context.Context, id string, changes map[string]string) (domprog.Program, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("get program: %w", err)
	}

	next, err := cur.Apply(changes)
	if err == nil {
		next, err = domprog.New(next)
	}
	if err != nil {
		return domprog.Program{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	if _, err := s.repo.Upsert(ctx, &next); err != nil {
		return domprog.Program{}, fmt.Errorf("save program: %w", err)
	}
	s.afterWrite(ctx)
	return next, nil
}

// Delete removes a program.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	s.afterWrite(ctx)
	return nil
}

// Search does a case-insensitive substring match. An empty or "all" field
// matches name, university, degree type and country.
func (s *Service) Search(ctx context.Context, query, field string) ([]domprog.Program, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, domain.NewValidationError("q", "is required")
	}

	columns := searchColumns
	if field != "" && field != "all" {
		if !domprog.IsColumn(field) {
			return nil, domain.NewValidationError("field", fmt.Sprintf("unknown column %q", field))
		}
		columns = []string{field}
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	out := make([]domprog.Program, 0)
	for i := range all {
		for _, col := range columns {
			v, _ := all[i].Field(col)
			if strings.Contains(strings.ToLower(v), q) {
				out = append(out, all[i])
				break
			}
		}
	}
	return out, nil
}

// Import saves programs in bulk. Within the batch the last row for an id wins;
// rows without an id get one generated. Rows missing required columns fail the
// whole import.
func (s *Service) Import(ctx context.Context, programs []domprog.Program) (ImportResult, error) {
	if len(programs) == 0 {
		return ImportResult{}, domain.NewValidationError("file", "contains no programs")
	}

	lastIdx := make(map[string]int, len(programs))
	rows := make([]domprog.Program, len(programs))
	for i, p := range programs {
		if p.ID == "" {
			p.ID = s.newID()
		}
		valid, err := domprog.New(p)
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: row %d: %w", domain.ErrInvalidArgument, i+1, err)
		}
		rows[i] = valid
		lastIdx[valid.ID] = i
	}

	deduped := make([]domprog.Program, 0, len(lastIdx))
	for i := range rows {
		if lastIdx[rows[i].ID] == i {
			deduped = append(deduped, rows[i])
		}
	}

	if err := s.repo.SaveMany(ctx, deduped); err != nil {
		return ImportResult{}, fmt.Errorf("save programs: %w", err)
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("count programs: %w", err)
	}
	s.refitWith(ctx, all)

	return ImportResult{Imported: len(deduped), Total: len(all)}, nil
}

// AutoScrape generates a batch of sample programs and imports it. A
// non-positive maxPrograms takes DefaultAutoScrape.
func (s *Service) AutoScrape(ctx context.Context, maxPrograms int) (ImportResult, error) {
	if maxPrograms <= 0 {
		maxPrograms = DefaultAutoScrape
	}
	if maxPrograms > MaxAutoScrape {
		return ImportResult{}, domain.NewValidationError("max_programs", fmt.Sprintf("must be at most %d", MaxAutoScrape))
	}

	res, err := s.Import(ctx, domprog.Generate(maxPrograms, s.now(), s.newID))
	if err != nil {
		return ImportResult{}, err
	}
	logger.FromContext(ctx).Info("Catalog auto-scraped",
		zap.Int("programs_scraped", res.Imported),
		zap.Int("total_programs", res.Total),
	)
	return res, nil
}

// Export returns the whole catalog in order.
func (s *Service) Export(ctx context.Context) ([]domprog.Program, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export programs: %w", err)
	}
	return all, nil
}

// Enrich scrapes the program's url and fills in the details it finds.
// Fields the page does not provide are left as they are.
func (s *Service) Enrich(ctx context.Context, id string) (domprog.Program, error) {
	if s.scraper == nil {
		return domprog.Program{}, fmt.Errorf("scraper disabled: %w", domain.ErrNotImplemented)
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("get program: %w", err)
	}
	if strings.TrimSpace(p.URL) == "" {
		return domprog.Program{}, domain.NewValidationError(domprog.ColURL, "is empty")
	}

	d, err := s.scraper.Scrape(ctx, p.URL)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("scrape %s: %w", p.URL, err)
	}

	changes := map[string]string{domprog.ColScrapedAt: s.now().UTC().Format(time.RFC3339)}
	for col, v := range map[string]string{
		domprog.ColDescription:  d.Description,
		domprog.ColRequirements: d.Requirements,
		domprog.ColTuitionFee:   d.TuitionFee,
		domprog.ColDuration:     d.Duration,
	} {
		if v != "" {
			changes[col] = v
		}
	}

	next, err := p.Apply(changes)
	if err != nil {
		return domprog.Program{}, fmt.Errorf("apply details: %w", err)
	}
	if _, err := s.repo.Upsert(ctx, &next); err != nil {
		return domprog.Program{}, fmt.Errorf("save program: %w", err)
	}
	s.afterWrite(ctx)
	return next, nil
}

// Retrain reloads the catalog and refits the retrieval model.
func (s *Service) Retrain(ctx context.Context) (retrieval.Stats, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return retrieval.Stats{}, fmt.Errorf("load corpus: %w", err)
	}
	return s.engine.Refit(ctx, all), nil
}

func (s *Service) afterWrite(ctx context.Context) {
	if !s.refitOnWrite {
		return
	}
	if _, err := s.Retrain(ctx); err != nil {
		logger.FromContext(ctx).Warn("Refit after write failed", zap.Error(err))
	}
}

func (s *Service) refitWith(ctx context.Context, all []domprog.Program) {
	if s.refitOnWrite {
		s.engine.Refit(ctx, all)
	}
}

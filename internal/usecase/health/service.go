package health

import (
	"context"
	"time"

	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// Status is the overall verdict.
type Status string

const (
	// Healthy: every check passed.
	Healthy Status = "ok"
	// Degraded: the responder is down; replies fall back to the summary.
	Degraded Status = "degraded"
	// Unhealthy: storage is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one check.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
	// CheckEmpty marks a fitted model with no programs. Informational only.
	CheckEmpty CheckResult = "empty"
)

// DefaultCheckTimeout bounds each check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Corpus retrieval.Stats
}

// Service checks storage and the responder and reports the model state.
type Service struct {
	db           DBPinger
	responder    ResponderChecker
	corpus       CorpusReporter
	checkTimeout time.Duration
}

// New creates a Service. responder may be nil when only the summary responder is in use.
func New(db DBPinger, responder ResponderChecker, corpus CorpusReporter) *Service {
	return &Service{db: db, responder: responder, corpus: corpus, checkTimeout: DefaultCheckTimeout}
}

// Check runs all checks and derives the overall status.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: make(map[string]CheckResult, 3)}

	if !s.bounded(ctx, s.db.Ping) {
		r.Checks["database"] = CheckError
		r.Status = Unhealthy
	} else {
		r.Checks["database"] = CheckOK
	}

	if s.responder != nil {
		if s.bounded(ctx, s.responder.HealthCheck) {
			r.Checks["responder"] = CheckOK
		} else {
			r.Checks["responder"] = CheckError
			if r.Status == Healthy {
				r.Status = Degraded
			}
		}
	}

	r.Corpus = s.corpus.Stats()
	if r.Corpus.Programs == 0 {
		r.Checks["corpus"] = CheckEmpty
	} else {
		r.Checks["corpus"] = CheckOK
	}
	return r
}

func (s *Service) bounded(ctx context.Context, fn func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()
	return fn(ctx) == nil
}

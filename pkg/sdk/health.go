package programdex

import (
	"context"

	healthuc "github.com/techrealm/programdex/internal/usecase/health"
)

// HealthStatus is the outcome of Client.Health.
//
// Status is "ok", "degraded" (the responder is down and replies use the
// built-in summary) or "error" (Redis is unreachable). Checks maps each
// check ("database", "responder", "corpus") to "ok", "error" or "empty".
type HealthStatus struct {
	Status string
	Checks map[string]string
	Corpus Stats
}

// Serving reports whether searches and chats can still be answered.
func (h HealthStatus) Serving() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health checks Redis and the responder and reports the fitted model.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	h := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
		Corpus: statsFromDomain(report.Corpus),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

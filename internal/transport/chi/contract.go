package chi

import (
	"context"

	domanalytics "github.com/techrealm/programdex/internal/domain/analytics"
	domapp "github.com/techrealm/programdex/internal/domain/application"
	domchat "github.com/techrealm/programdex/internal/domain/chat"
	domemail "github.com/techrealm/programdex/internal/domain/email"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/domain/search/result"
	emailuc "github.com/techrealm/programdex/internal/usecase/email"
	healthuc "github.com/techrealm/programdex/internal/usecase/health"
	programuc "github.com/techrealm/programdex/internal/usecase/program"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// ProgramService manages the catalog.
type ProgramService interface {
	List(ctx context.Context, page, perPage int) (programuc.Page, error)
	Create(ctx context.Context, fields map[string]string) (domprog.Program, error)
	Get(ctx context.Context, id string) (domprog.Program, error)
	Update(ctx context.Context, id string, changes map[string]string) (domprog.Program, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query, field string) ([]domprog.Program, error)
	Import(ctx context.Context, programs []domprog.Program) (programuc.ImportResult, error)
	Export(ctx context.Context) ([]domprog.Program, error)
	Enrich(ctx context.Context, id string) (domprog.Program, error)
	AutoScrape(ctx context.Context, maxPrograms int) (programuc.ImportResult, error)
	Retrain(ctx context.Context) (retrieval.Stats, error)
}

// ChatService manages chat sessions.
type ChatService interface {
	Create(ctx context.Context, userID string) (domchat.Session, error)
	Send(ctx context.Context, chatID, message string) (domchat.Turn, error)
	QuickAsk(ctx context.Context, message string) (retrieval.Reply, error)
	Get(ctx context.Context, chatID string) (domchat.Session, error)
	List(ctx context.Context, userID string) ([]domchat.Session, error)
	Delete(ctx context.Context, chatID string) error
}

// ApplicationService records program applications.
type ApplicationService interface {
	Apply(ctx context.Context, programID, programName, userEmail string) (domapp.Application, error)
	List(ctx context.Context) ([]domapp.Application, error)
}

// AnalyticsService records interaction events and reports on them.
type AnalyticsService interface {
	Log(ctx context.Context, projectID, eventType, userID string) (domanalytics.Event, error)
	Events(ctx context.Context, f domanalytics.Filter) ([]domanalytics.Event, error)
	Summary(ctx context.Context) (domanalytics.Summary, error)
	Project(ctx context.Context, projectID string) (domanalytics.Activity, error)
	User(ctx context.Context, userID string) (domanalytics.Activity, error)
	Clear(ctx context.Context) (int, error)
}

// EmailService sends email and reports on the delivery log.
type EmailService interface {
	Send(ctx context.Context, to, subject, content, programID string) (emailuc.Delivery, error)
	SendApplication(ctx context.Context, to, programName, university, programID string) (emailuc.Delivery, error)
	SendTest(ctx context.Context, to string) (domemail.Receipt, error)
	List(ctx context.Context, f domemail.Filter) ([]domemail.Record, error)
	Get(ctx context.Context, id string) (domemail.Record, error)
	Stats(ctx context.Context) (domemail.Stats, error)
}

// Retriever ranks programs against free text.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]result.Result, error)
	Stats() retrieval.Stats
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

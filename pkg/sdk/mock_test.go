package programdex

import (
	"context"

	domchat "github.com/techrealm/programdex/internal/domain/chat"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/domain/search/result"
	healthuc "github.com/techrealm/programdex/internal/usecase/health"
	programuc "github.com/techrealm/programdex/internal/usecase/program"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

// --- programUseCase mock ---

type mockProgramUC struct {
	listFn    func(ctx context.Context, page, perPage int) (programuc.Page, error)
	createFn  func(ctx context.Context, fields map[string]string) (domprog.Program, error)
	getFn     func(ctx context.Context, id string) (domprog.Program, error)
	updateFn  func(ctx context.Context, id string, changes map[string]string) (domprog.Program, error)
	deleteFn  func(ctx context.Context, id string) error
	searchFn  func(ctx context.Context, query, field string) ([]domprog.Program, error)
	importFn  func(ctx context.Context, programs []domprog.Program) (programuc.ImportResult, error)
	exportFn  func(ctx context.Context) ([]domprog.Program, error)
	retrainFn func(ctx context.Context) (retrieval.Stats, error)
}

func (m *mockProgramUC) List(ctx context.Context, page, perPage int) (programuc.Page, error) {
	return m.listFn(ctx, page, perPage)
}

func (m *mockProgramUC) Create(ctx context.Context, fields map[string]string) (domprog.Program, error) {
	return m.createFn(ctx, fields)
}

func (m *mockProgramUC) Get(ctx context.Context, id string) (domprog.Program, error) {
	return m.getFn(ctx, id)
}

func (m *mockProgramUC) Update(
	ctx context.Context, id string, changes map[string]string,
) (domprog.Program, error) {
	return m.updateFn(ctx, id, changes)
}

func (m *mockProgramUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockProgramUC) Search(ctx context.Context, query, field string) ([]domprog.Program, error) {
	return m.searchFn(ctx, query, field)
}

func (m *mockProgramUC) Import(
	ctx context.Context, programs []domprog.Program,
) (programuc.ImportResult, error) {
	return m.importFn(ctx, programs)
}

func (m *mockProgramUC) Export(ctx context.Context) ([]domprog.Program, error) {
	return m.exportFn(ctx)
}

func (m *mockProgramUC) Retrain(ctx context.Context) (retrieval.Stats, error) {
	return m.retrainFn(ctx)
}

// --- chatUseCase mock ---

type mockChatUC struct {
	createFn   func(ctx context.Context, userID string) (domchat.Session, error)
	sendFn     func(ctx context.Context, chatID, message string) (domchat.Turn, error)
	quickAskFn func(ctx context.Context, message string) (retrieval.Reply, error)
	getFn      func(ctx context.Context, chatID string) (domchat.Session, error)
	listFn     func(ctx context.Context, userID string) ([]domchat.Session, error)
	deleteFn   func(ctx context.Context, chatID string) error
}

func (m *mockChatUC) Create(ctx context.Context, userID string) (domchat.Session, error) {
	return m.createFn(ctx, userID)
}

func (m *mockChatUC) Send(ctx context.Context, chatID, message string) (domchat.Turn, error) {
	return m.sendFn(ctx, chatID, message)
}

func (m *mockChatUC) QuickAsk(ctx context.Context, message string) (retrieval.Reply, error) {
	return m.quickAskFn(ctx, message)
}

func (m *mockChatUC) Get(ctx context.Context, chatID string) (domchat.Session, error) {
	return m.getFn(ctx, chatID)
}

func (m *mockChatUC) List(ctx context.Context, userID string) ([]domchat.Session, error) {
	return m.listFn(ctx, userID)
}

func (m *mockChatUC) Delete(ctx context.Context, chatID string) error {
	return m.deleteFn(ctx, chatID)
}

// --- retriever mock ---

type mockRetriever struct {
	searchFn func(ctx context.Context, query string, topK int) ([]result.Result, error)
	stats    retrieval.Stats
}

func (m *mockRetriever) Search(ctx context.Context, query string, topK int) ([]result.Result, error) {
	return m.searchFn(ctx, query, topK)
}

func (m *mockRetriever) Stats() retrieval.Stats { return m.stats }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- Responder mock ---

type mockResponder struct {
	fn func(ctx context.Context, query string, results []SearchResult) (string, error)
}

func (m *mockResponder) Respond(ctx context.Context, query string, results []SearchResult) (string, error) {
	return m.fn(ctx, query, results)
}

// --- helpers ---

func sampleProgram(id, name string) domprog.Program {
	return domprog.Program{
		ID:         id,
		Name:       name,
		University: "TU Munich",
		DegreeType: "Master",
		Country:    "Germany",
	}
}

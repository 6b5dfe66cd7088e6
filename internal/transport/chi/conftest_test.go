package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

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

// --- Mocks ---

type mockPrograms struct {
	page     programuc.Page
	program  domprog.Program
	list     []domprog.Program
	imported programuc.ImportResult
	stats    retrieval.Stats
	err      error

	gotPage, gotPerPage int
	gotFields           map[string]string
	gotID               string
	gotQuery, gotField  string
	gotImport           []domprog.Program
	gotMax              int
}

func (m *mockPrograms) List(_ context.Context, page, perPage int) (programuc.Page, error) {
	m.gotPage, m.gotPerPage = page, perPage
	return m.page, m.err
}

func (m *mockPrograms) Create(_ context.Context, fields map[string]string) (domprog.Program, error) {
	m.gotFields = fields
	return m.program, m.err
}

func (m *mockPrograms) Get(_ context.Context, id string) (domprog.Program, error) {
	m.gotID = id
	return m.program, m.err
}

func (m *mockPrograms) Update(_ context.Context, id string, changes map[string]string) (domprog.Program, error) {
	m.gotID, m.gotFields = id, changes
	return m.program, m.err
}

func (m *mockPrograms) Delete(_ context.Context, id string) error {
	m.gotID = id
	return m.err
}

func (m *mockPrograms) Search(_ context.Context, query, field string) ([]domprog.Program, error) {
	m.gotQuery, m.gotField = query, field
	return m.list, m.err
}

func (m *mockPrograms) Import(_ context.Context, programs []domprog.Program) (programuc.ImportResult, error) {
	m.gotImport = programs
	return m.imported, m.err
}

func (m *mockPrograms) Export(_ context.Context) ([]domprog.Program, error) {
	return m.list, m.err
}

func (m *mockPrograms) Enrich(_ context.Context, id string) (domprog.Program, error) {
	m.gotID = id
	return m.program, m.err
}

func (m *mockPrograms) AutoScrape(_ context.Context, maxPrograms int) (programuc.ImportResult, error) {
	m.gotMax = maxPrograms
	return m.imported, m.err
}

func (m *mockPrograms) Retrain(_ context.Context) (retrieval.Stats, error) {
	return m.stats, m.err
}

type mockChats struct {
	session  domchat.Session
	sessions []domchat.Session
	turn     domchat.Turn
	reply    retrieval.Reply
	err      error

	gotUserID, gotChatID, gotMessage string
	quickAsks, sends                 int
}

func (m *mockChats) Create(_ context.Context, userID string) (domchat.Session, error) {
	m.gotUserID = userID
	return m.session, m.err
}

func (m *mockChats) Send(_ context.Context, chatID, message string) (domchat.Turn, error) {
	m.sends++
	m.gotChatID, m.gotMessage = chatID, message
	return m.turn, m.err
}

func (m *mockChats) QuickAsk(_ context.Context, message string) (retrieval.Reply, error) {
	m.quickAsks++
	m.gotMessage = message
	return m.reply, m.err
}

func (m *mockChats) Get(_ context.Context, chatID string) (domchat.Session, error) {
	m.gotChatID = chatID
	return m.session, m.err
}

func (m *mockChats) List(_ context.Context, userID string) ([]domchat.Session, error) {
	m.gotUserID = userID
	return m.sessions, m.err
}

func (m *mockChats) Delete(_ context.Context, chatID string) error {
	m.gotChatID = chatID
	return m.err
}

type mockApplications struct {
	app  domapp.Application
	apps []domapp.Application
	err  error
}

func (m *mockApplications) Apply(_ context.Context, programID, programName, userEmail string) (domapp.Application, error) {
	if m.err != nil {
		return domapp.Application{}, m.err
	}
	m.app.ProgramID, m.app.ProgramName, m.app.UserEmail = programID, programName, userEmail
	return m.app, nil
}

func (m *mockApplications) List(_ context.Context) ([]domapp.Application, error) {
	return m.apps, m.err
}

type mockAnalytics struct {
	summary  domanalytics.Summary
	activity domanalytics.Activity
	events   []domanalytics.Event
	cleared  int
	err      error

	gotProjectID, gotUserID string
	gotFilter               domanalytics.Filter
	logged                  domanalytics.Event
}

func (m *mockAnalytics) Log(_ context.Context, projectID, eventType, userID string) (domanalytics.Event, error) {
	if m.err != nil {
		return domanalytics.Event{}, m.err
	}
	m.logged = domanalytics.Event{ID: "ev-1", ProjectID: projectID, EventType: eventType, UserID: userID}
	return m.logged, nil
}

func (m *mockAnalytics) Events(_ context.Context, f domanalytics.Filter) ([]domanalytics.Event, error) {
	m.gotFilter = f
	return m.events, m.err
}

func (m *mockAnalytics) Summary(_ context.Context) (domanalytics.Summary, error) {
	return m.summary, m.err
}

func (m *mockAnalytics) Project(_ context.Context, projectID string) (domanalytics.Activity, error) {
	m.gotProjectID = projectID
	return m.activity, m.err
}

func (m *mockAnalytics) User(_ context.Context, userID string) (domanalytics.Activity, error) {
	m.gotUserID = userID
	return m.activity, m.err
}

func (m *mockAnalytics) Clear(_ context.Context) (int, error) {
	return m.cleared, m.err
}

type mockEmails struct {
	delivery emailuc.Delivery
	receipt  domemail.Receipt
	record   domemail.Record
	records  []domemail.Record
	stats    domemail.Stats
	err      error

	gotTo, gotSubject, gotContent string
	gotProgramName, gotUniversity string
	gotProgramID, gotID           string
	gotFilter                     domemail.Filter
}

func (m *mockEmails) Send(_ context.Context, to, subject, content, programID string) (emailuc.Delivery, error) {
	m.gotTo, m.gotSubject, m.gotContent, m.gotProgramID = to, subject, content, programID
	return m.delivery, m.err
}

func (m *mockEmails) SendApplication(_ context.Context, to, programName, university, programID string) (emailuc.Delivery, error) {
	m.gotTo, m.gotProgramName, m.gotUniversity, m.gotProgramID = to, programName, university, programID
	return m.delivery, m.err
}

func (m *mockEmails) SendTest(_ context.Context, to string) (domemail.Receipt, error) {
	m.gotTo = to
	return m.receipt, m.err
}

func (m *mockEmails) List(_ context.Context, f domemail.Filter) ([]domemail.Record, error) {
	m.gotFilter = f
	return m.records, m.err
}

func (m *mockEmails) Get(_ context.Context, id string) (domemail.Record, error) {
	m.gotID = id
	return m.record, m.err
}

func (m *mockEmails) Stats(_ context.Context) (domemail.Stats, error) {
	return m.stats, m.err
}

type mockRetriever struct {
	results  []result.Result
	stats    retrieval.Stats
	err      error
	gotQuery string
	gotTopK  int
}

func (m *mockRetriever) Search(_ context.Context, query string, topK int) ([]result.Result, error) {
	m.gotQuery, m.gotTopK = query, topK
	return m.results, m.err
}

func (m *mockRetriever) Stats() retrieval.Stats { return m.stats }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type testDeps struct {
	programs     *mockPrograms
	chats        *mockChats
	applications *mockApplications
	analytics    *mockAnalytics
	emails       *mockEmails
	retriever    *mockRetriever
	health       *mockHealth
}

func newDeps() *testDeps {
	return &testDeps{
		programs:     &mockPrograms{},
		chats:        &mockChats{},
		applications: &mockApplications{},
		analytics:    &mockAnalytics{},
		emails:       &mockEmails{},
		retriever:    &mockRetriever{},
		health:       &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
}

func (d *testDeps) server() *Server {
	return NewServer(d.programs, d.chats, d.applications, d.analytics, d.emails, d.retriever, d.health, zap.NewNop())
}

func (d *testDeps) router() http.Handler {
	return routerFor(d.server())
}

func routerFor(s *Server) http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

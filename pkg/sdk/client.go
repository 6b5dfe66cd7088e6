package programdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/db"
	dbRedis "github.com/techrealm/programdex/internal/db/redis"
	domchat "github.com/techrealm/programdex/internal/domain/chat"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/domain/search/result"
	chatrepo "github.com/techrealm/programdex/internal/repository/chat"
	programrepo "github.com/techrealm/programdex/internal/repository/program"
	openaiT "github.com/techrealm/programdex/internal/transport/openai"
	chatuc "github.com/techrealm/programdex/internal/usecase/chat"
	healthuc "github.com/techrealm/programdex/internal/usecase/health"
	programuc "github.com/techrealm/programdex/internal/usecase/program"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type programUseCase interface {
	List(ctx context.Context, page, perPage int) (programuc.Page, error)
	Create(ctx context.Context, fields map[string]string) (domprog.Program, error)
	Get(ctx context.Context, id string) (domprog.Program, error)
	Update(ctx context.Context, id string, changes map[string]string) (domprog.Program, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query, field string) ([]domprog.Program, error)
	Import(ctx context.Context, programs []domprog.Program) (programuc.ImportResult, error)
	Export(ctx context.Context) ([]domprog.Program, error)
	Retrain(ctx context.Context) (retrieval.Stats, error)
}

type chatUseCase interface {
	Create(ctx context.Context, userID string) (domchat.Session, error)
	Send(ctx context.Context, chatID, message string) (domchat.Turn, error)
	QuickAsk(ctx context.Context, message string) (retrieval.Reply, error)
	Get(ctx context.Context, chatID string) (domchat.Session, error)
	List(ctx context.Context, userID string) ([]domchat.Session, error)
	Delete(ctx context.Context, chatID string) error
}

type retriever interface {
	Search(ctx context.Context, query string, topK int) ([]result.Result, error)
	Stats() retrieval.Stats
}

// Client is the programdex SDK entry point. It runs the catalog and the
// retrieval engine in-process on top of a Redis instance.
type Client struct {
	store     db.Store
	progSvc   programUseCase
	chatSvc   chatUseCase
	engine    retriever
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client, connects to Redis and fits the retrieval model on the
// stored catalog. The provided context bounds the readiness check and the fit.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("programdex: database address required (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("programdex: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("programdex: database not ready: %w", err)
	}

	c := wireClient(store, cfg, obs)
	if _, err := c.progSvc.Retrain(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("programdex: fit model: %w", err)
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	opts := retrieval.DefaultOptions()
	if cfg.maxFeatures != 0 {
		opts.MaxFeatures = cfg.maxFeatures
	}
	if cfg.minScore > 0 {
		opts.MinScore = cfg.minScore
	}
	if cfg.cacheSize != 0 {
		opts.CacheSize = cfg.cacheSize
	}

	responder, name, checker := buildResponder(cfg)
	engine := retrieval.New(opts, responder, name, zap.NewNop())

	progSvc := programuc.New(programrepo.New(store), engine, nil,
		programuc.WithRefitOnWrite(cfg.refitOnWrite))
	chatSvc := chatuc.New(chatrepo.New(store, cfg.chatTTL), engine)

	return &Client{
		store:     store,
		progSvc:   progSvc,
		chatSvc:   chatSvc,
		engine:    engine,
		healthSvc: healthuc.New(store, checker, engine),
		obs:       obs,
	}
}

// buildResponder picks the chat responder. A nil responder selects the
// built-in summary.
func buildResponder(cfg *clientConfig) (retrieval.Responder, string, healthuc.ResponderChecker) {
	switch {
	case cfg.responder != nil:
		return &responderAdapter{inner: cfg.responder}, "custom", nil
	case cfg.openAI != nil:
		r := openaiT.NewResponder(cfg.openAI)
		return r, "openai", r
	default:
		return nil, "summary", nil
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Programs returns the catalog service.
func (c *Client) Programs() *ProgramService {
	return &ProgramService{svc: c.progSvc, obs: c.obs}
}

// Chats returns the conversation service.
func (c *Client) Chats() *ChatService {
	return &ChatService{svc: c.chatSvc, obs: c.obs}
}

// Search ranks catalog programs against a free-text query.
// A non-positive topK uses the default of 5; values above 100 are clamped.
func (c *Client) Search(ctx context.Context, query string, topK int) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	results, err := c.engine.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return searchResultsFromDomain(results), nil
}

// Stats describes the currently published model.
func (c *Client) Stats() Stats {
	return statsFromDomain(c.engine.Stats())
}

// responderAdapter wraps a public Responder to satisfy retrieval.Responder.
type responderAdapter struct {
	inner Responder
}

func (a *responderAdapter) Respond(ctx context.Context, query string, results []result.Result) (string, error) {
	text, err := a.inner.Respond(ctx, query, searchResultsFromDomain(results))
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	return text, nil
}

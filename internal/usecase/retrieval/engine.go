// Package retrieval owns the in-memory corpus model and answers searches and chat
// messages against it.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	"github.com/techrealm/programdex/internal/domain/chat"
	"github.com/techrealm/programdex/internal/domain/corpus"
	"github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/domain/search/request"
	"github.com/techrealm/programdex/internal/domain/search/result"
	"github.com/techrealm/programdex/internal/domain/summary"
	"github.com/techrealm/programdex/internal/logger"
	"github.com/techrealm/programdex/internal/metrics"
)

// Defaults for Options.
const (
	DefaultMinScore  = 0.1
	DefaultCacheSize = 256
	// ChatTopK is how many programs a chat message retrieves.
	ChatTopK = request.DefaultTopK
)

// Options configures an Engine.
type Options struct {
	// MaxFeatures caps the vocabulary; see corpus.Options.
	MaxFeatures int
	// MinScore drops results scoring at or below it.
	MinScore float64
	// CacheSize is the per-model query cache capacity. Zero or less disables caching.
	CacheSize int
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		MaxFeatures: corpus.DefaultMaxFeatures,
		MinScore:    DefaultMinScore,
		CacheSize:   DefaultCacheSize,
	}
}

// Reply is the outcome of a chat message.
type Reply struct {
	Text    string
	Results []result.Result
}

// Stats describes the published model.
type Stats struct {
	Programs   int
	Vocabulary int
	FittedAt   time.Time
}

type cacheKey struct {
	query string
	topK  int
}

// snapshot is an immutable fitted model plus the programs its rows refer to.
type snapshot struct {
	model    *corpus.Model
	programs []program.Program
	cache    *lru.Cache[cacheKey, []result.Result]
	fittedAt time.Time
}

// Engine answers searches against the most recently fitted snapshot.
// Searches never block on a refit: they load the current snapshot once and
// use it for their whole duration.
type Engine struct {
	opts          Options
	responder     Responder
	responderName string
	logger        *zap.Logger

	refitMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// New creates an Engine with an empty model. responder may be nil, in which
// case replies use the deterministic summary.
func New(opts Options, responder Responder, responderName string, logger *zap.Logger) *Engine {
	if responder == nil {
		responder = SummaryResponder{}
		responderName = "summary"
	}
	e := &Engine{
		opts:          opts,
		responder:     responder,
		responderName: responderName,
		logger:        logger,
	}
	e.current.Store(e.build(nil))
	return e
}

// Refit fits a fresh model over programs and publishes it atomically.
// The previous model keeps serving until the new one is ready.
func (e *Engine) Refit(ctx context.Context, programs []program.Program) Stats {
	e.refitMu.Lock()
	defer e.refitMu.Unlock()

	start := time.Now()
	snap := e.build(programs)
	e.current.Store(snap)
	duration := time.Since(start)

	metrics.RefitDuration.Observe(duration.Seconds())
	metrics.CorpusSize.Set(float64(snap.model.Len()))
	metrics.VocabularySize.Set(float64(snap.model.VocabularySize()))

	e.log(ctx).Info("Corpus model refit",
		zap.Int("programs", snap.model.Len()),
		zap.Int("vocabulary", snap.model.VocabularySize()),
		zap.Duration("duration", duration),
		zap.Time("fitted_at", snap.fittedAt),
	)

	return statsOf(snap)
}

// log prefers the request logger over the engine's own.
func (e *Engine) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, e.logger)
}

func (e *Engine) build(programs []program.Program) *snapshot {
	owned := make([]program.Program, len(programs))
	copy(owned, programs)

	texts := make([]string, len(owned))
	for i := range owned {
		texts[i] = owned[i].Text()
	}

	snap := &snapshot{
		model:    corpus.Fit(texts, corpus.Options{MaxFeatures: e.opts.MaxFeatures}),
		programs: owned,
		fittedAt: time.Now(),
	}
	if e.opts.CacheSize > 0 {
		// lru.New only fails on a non-positive size.
		snap.cache, _ = lru.New[cacheKey, []result.Result](e.opts.CacheSize)
	}
	return snap
}

// Stats reports the published model.
func (e *Engine) Stats() Stats {
	return statsOf(e.current.Load())
}

func statsOf(s *snapshot) Stats {
	return Stats{
		Programs:   s.model.Len(),
		Vocabulary: s.model.VocabularySize(),
		FittedAt:   s.fittedAt,
	}
}

// Search returns up to topK programs most similar to query, best first.
// Results scoring at or below the minimum score are dropped; ties keep corpus order.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]result.Result, error) {
	req, err := request.New(query, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	snap := e.current.Load()
	key := cacheKey{query: req.Query(), topK: req.TopK()}

	if snap.cache != nil {
		if cached, ok := snap.cache.Get(key); ok {
			metrics.SearchesTotal.WithLabelValues("hit").Inc()
			metrics.SearchResults.Observe(float64(len(cached)))
			return cloneResults(cached), nil
		}
	}
	metrics.SearchesTotal.WithLabelValues("miss").Inc()

	results := e.rank(snap, req)
	if snap.cache != nil {
		snap.cache.Add(key, results)
	}
	metrics.SearchResults.Observe(float64(len(results)))

	e.log(ctx).Debug("Retrieval search",
		zap.Int("top_k", req.TopK()),
		zap.Int("results", len(results)),
	)
	return cloneResults(results), nil
}

func (e *Engine) rank(snap *snapshot, req request.Request) []result.Result {
	q := snap.model.Project(req.Query())
	if len(q) == 0 {
		return []result.Result{}
	}
	scores := snap.model.Scores(q)

	// Scores are sorted descending before truncation, so thresholding first
	// yields the same set as truncating first.
	candidates := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > e.opts.MinScore {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return scores[candidates[a]] > scores[candidates[b]]
	})
	if len(candidates) > req.TopK() {
		candidates = candidates[:req.TopK()]
	}

	results := make([]result.Result, len(candidates))
	for i, idx := range candidates {
		results[i] = result.New(snap.programs[idx], scores[idx])
	}
	return results
}

func cloneResults(in []result.Result) []result.Result {
	out := make([]result.Result, len(in))
	copy(out, in)
	return out
}

// Chat answers a user message from the top ChatTopK programs.
// history is accepted for API compatibility and does not influence the answer.
func (e *Engine) Chat(ctx context.Context, message string, _ []chat.Turn) (Reply, error) {
	results, err := e.Search(ctx, message, ChatTopK)
	if err != nil {
		return Reply{}, err
	}
	if len(results) == 0 {
		return Reply{Text: summary.NoMatches, Results: results}, nil
	}

	start := time.Now()
	text, err := e.responder.Respond(ctx, message, results)
	metrics.ResponderDuration.WithLabelValues(e.responderName).Observe(time.Since(start).Seconds())
	if err != nil || text == "" {
		metrics.ResponderRequestsTotal.WithLabelValues(e.responderName, "error").Inc()
		metrics.ResponderFallbacksTotal.Inc()
		e.log(ctx).Warn("Responder failed, using summary",
			zap.String("responder", e.responderName),
			zap.Error(err),
		)
		text = summary.Compose(results)
	} else {
		metrics.ResponderRequestsTotal.WithLabelValues(e.responderName, "ok").Inc()
	}

	return Reply{Text: text, Results: results}, nil
}

package programdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	openaiT "github.com/techrealm/programdex/internal/transport/openai"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	responder Responder
	openAI    *openaiT.Config

	maxFeatures  int
	minScore     float64
	cacheSize    int
	refitOnWrite bool
	chatTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisCluster connects to a Redis cluster through the given seed nodes.
func WithRedisCluster(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append([]string(nil), addrs...)
		c.username = username
		c.password = password
	})
}

// WithDatabase selects a logical Redis database. Ignored by clusters.
func WithDatabase(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithResponder sets a custom chat responder.
// Without one, replies are built from the top matches by the summary responder.
func WithResponder(r Responder) Option {
	return optionFunc(func(c *clientConfig) {
		c.responder = r
	})
}

// WithOpenAI generates chat replies with an OpenAI-compatible chat completion API.
// An empty model uses gpt-3.5-turbo. WithResponder takes precedence.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openaiT.Config{
			APIKey:      apiKey,
			Model:       model,
			Temperature: 0.7,
			Timeout:     20 * time.Second,
		}
	})
}

// WithVocabulary caps the number of distinct terms the model keeps.
// Default: 500. A negative value keeps every term.
func WithVocabulary(maxFeatures int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxFeatures = maxFeatures
	})
}

// WithMinScore drops results scoring at or below min. Default: 0.1.
func WithMinScore(min float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minScore = min
	})
}

// WithQueryCache sets the query cache capacity. Default: 256. Negative disables it.
func WithQueryCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
	})
}

// WithRefitOnWrite refits the model after every catalog write instead of
// waiting for an explicit Retrain.
func WithRefitOnWrite() Option {
	return optionFunc(func(c *clientConfig) {
		c.refitOnWrite = true
	})
}

// WithChatTTL expires idle chat sessions. Zero keeps them forever (default).
func WithChatTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// Package scraper fetches program details from public program pages.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/techrealm/programdex/internal/domain"
	"github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/metrics"
	"github.com/techrealm/programdex/internal/version"
)

// Defaults for Config.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultRateLimit    = 1.0
	DefaultMaxBodyBytes = 2 << 20
)

// Selectors are CSS selectors for each scraped field. The first match wins.
type Selectors struct {
	Description  string
	Requirements string
	TuitionFee   string
	Duration     string
}

// DefaultSelectors match the common program page layout.
var DefaultSelectors = Selectors{
	Description:  "div.program-description",
	Requirements: "div.requirements",
	TuitionFee:   "span.tuition",
	Duration:     "span.duration",
}

// Config holds scraper settings. Zero values take the defaults.
type Config struct {
	Timeout      time.Duration
	RateLimit    float64 // requests per second
	MaxBodyBytes int64
	UserAgent    string
	Selectors    Selectors
	Logger       *zap.Logger
}

// Scraper fetches one page at a time, politely rate limited.
type Scraper struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxBody   int64
	userAgent string
	selectors Selectors
	logger    *zap.Logger
}

// New creates a scraper.
func New(cfg Config) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	if cfg.Selectors == (Selectors{}) {
		cfg.Selectors = DefaultSelectors
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Scraper{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
		selectors: cfg.Selectors,
		logger:    cfg.Logger,
	}
}

// Scrape fetches rawURL and extracts program details. Fields the page lacks are empty.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (program.Details, error) {
	details, err := s.scrape(ctx, rawURL)
	if err != nil {
		metrics.ScrapeRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Scrape failed", zap.String("url", rawURL), zap.Error(err))
		return program.Details{}, err
	}
	metrics.ScrapeRequestsTotal.WithLabelValues("ok").Inc()
	return details, nil
}

func (s *Scraper) scrape(ctx context.Context, rawURL string) (program.Details, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return program.Details{}, domain.NewValidationError(program.ColURL, "must be an absolute http(s) URL")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return program.Details{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return program.Details{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return program.Details{}, fmt.Errorf("fetch: %v: %w", err, domain.ErrScrapeFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return program.Details{}, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrScrapeFailed)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return program.Details{}, fmt.Errorf("parse html: %v: %w", err, domain.ErrScrapeFailed)
	}

	return program.Details{
		Description:  extractText(doc, s.selectors.Description),
		Requirements: extractText(doc, s.selectors.Requirements),
		TuitionFee:   extractText(doc, s.selectors.TuitionFee),
		Duration:     extractText(doc, s.selectors.Duration),
	}, nil
}

// extractText returns the whitespace-collapsed text of the first match.
func extractText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
}

package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
	"github.com/alkoparse/alkoteka-crawler/internal/config"
	"github.com/alkoparse/alkoteka-crawler/internal/sink"
)

// Spider drives one logical crawl run: it resolves the target city, sets the
// session cookie, fans out over the configured categories, follows pagination
// and hands every product detail to the normalizer. All requests share one
// cookie jar and, when configured, one sticky proxy.
type Spider struct {
	cfg        Config
	endpoints  Endpoints
	logger     *zap.Logger
	normalizer *catalog.Normalizer
	sink       sink.Sink
	retry      *RetryPolicy
	rotation   Rotation

	runID      string
	cityUUID   string
	categories []string

	collector *colly.Collector
	ctx       context.Context

	pendingRetries atomic.Int64
	retryWG        sync.WaitGroup

	failOnce sync.Once
	fatal    error
}

// NewSpider builds a Spider. The normalizer and sink are required; rotation
// lists are loaded here and missing files are tolerated.
func NewSpider(cfg Config, normalizer *catalog.Normalizer, out sink.Sink, logger *zap.Logger) *Spider {
	return &Spider{
		cfg:        cfg,
		endpoints:  Endpoints{APIBase: cfg.APIBase, SiteBase: cfg.SiteBase},
		logger:     logger,
		normalizer: normalizer,
		sink:       out,
		retry:      NewRetryPolicy(),
		rotation:   LoadRotation(cfg.UserAgentsFile, cfg.ProxiesFile, logger),
		runID:      uuid.NewString(),
	}
}

// Run executes the crawl and blocks until all requests, including pending
// retries, have settled. A failed city-set or an unusable category list is
// fatal; listing and detail failures only drop their own page or product.
func (s *Spider) Run(ctx context.Context) error {
	s.ctx = ctx

	cities, err := config.LoadCities(s.cfg.CitiesFile)
	if err != nil {
		s.logger.Warn("City table unavailable; using default city",
			zap.String("default", config.DefaultCityName), zap.Error(err))
	}
	cityUUID, matched := config.PickCityUUID(s.cfg.CityName, cities)
	if !matched {
		if strings.TrimSpace(s.cfg.CityName) != "" {
			s.logger.Warn("City not found in table; using default",
				zap.String("city", s.cfg.CityName), zap.String("default", config.DefaultCityName))
		}
		cityUUID = config.DefaultCityUUID
	}
	s.cityUUID = cityUUID

	s.categories, err = config.LoadCategories(s.cfg.CategoriesFile)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	s.collector, err = s.newCollector()
	if err != nil {
		return fmt.Errorf("init collector: %w", err)
	}

	s.logger.Info("Starting crawl",
		zap.String("run_id", s.runID),
		zap.String("city_uuid", s.cityUUID),
		zap.Int("categories", len(s.categories)),
		zap.Int("per_page", s.cfg.PerPage),
	)

	s.request(s.endpoints.CityURL(s.cityUUID), RequestContext{Stage: StageSetCity})

	for {
		s.collector.Wait()
		if s.pendingRetries.Load() == 0 {
			break
		}
		s.retryWG.Wait()
	}

	if s.fatal != nil {
		return s.fatal
	}
	return ctx.Err()
}

func (s *Spider) newCollector() (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(s.rotation.UserAgent(s.cfg.UserAgent)),
	)
	c.AllowURLRevisit = false
	c.SetRequestTimeout(s.cfg.RequestTimeout)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: s.cfg.Parallelism,
		Delay:       s.cfg.Delay,
		RandomDelay: s.cfg.RandomDelay,
	}); err != nil {
		return nil, err
	}

	if proxy := s.rotation.Proxy(s.cfg.Proxy); proxy != "" {
		if err := c.SetProxy(proxy); err != nil {
			return nil, err
		}
		s.logger.Info("Using proxy", zap.String("proxy", proxy))
	}

	// The catalog only answers once age confirmation is on the session.
	if err := c.SetCookies(s.cfg.APIBase, []*http.Cookie{
		{Name: "alkoteka_age_confirm", Value: "true", Path: "/"},
	}); err != nil {
		return nil, err
	}

	c.OnResponse(s.handleResponse)
	c.OnError(s.handleError)
	return c, nil
}

func (s *Spider) request(urlStr string, rc RequestContext) {
	if s.ctx.Err() != nil {
		return
	}
	TotalRequests.WithLabelValues(string(rc.Stage)).Inc()
	if err := s.collector.Request(http.MethodGet, urlStr, nil, newCollyContext(rc), nil); err != nil {
		var alreadyVisited *colly.AlreadyVisitedError
		if errors.As(err, &alreadyVisited) {
			s.logger.Debug("Skipping already visited URL", zap.String("url", urlStr))
			return
		}
		s.logger.Warn("Failed to enqueue request",
			zap.String("url", urlStr), zap.String("stage", string(rc.Stage)), zap.Error(err))
		if rc.Stage == StageSetCity {
			s.fail(fmt.Errorf("city request: %w", err))
		}
	}
}

func (s *Spider) handleResponse(r *colly.Response) {
	rc := requestContext(r.Request)
	switch rc.Stage {
	case StageSetCity:
		s.afterCitySet(r)
	case StageList:
		s.parseListing(r, rc)
	case StageDetail:
		s.parseDetail(r, rc)
	default:
		s.logger.Warn("Response without a crawl stage", zap.String("url", r.Request.URL.String()))
	}
}

// afterCitySet fans the crawl out: one first-page listing request per
// configured category. Categories whose slug cannot be derived are skipped.
func (s *Spider) afterCitySet(r *colly.Response) {
	s.logger.Info("City cookie set", zap.Int("status", r.StatusCode))
	for _, categoryURL := range s.categories {
		slug := CategorySlug(categoryURL)
		if slug == "" {
			s.logger.Warn("Cannot derive category slug; skipping",
				zap.String("category_url", categoryURL))
			continue
		}
		s.requestListing(slug, 1)
	}
}

func (s *Spider) requestListing(rootCategorySlug string, page int) {
	s.request(
		s.endpoints.ListingURL(s.cityUUID, rootCategorySlug, page, s.cfg.PerPage),
		RequestContext{Stage: StageList, RootCategorySlug: rootCategorySlug, Page: page},
	)
}

type productStub struct {
	Slug         string `json:"slug"`
	CategorySlug string `json:"category_slug"`
}

type listingEnvelope struct {
	Results []productStub `json:"results"`
	Meta    struct {
		HasMorePages bool `json:"has_more_pages"`
	} `json:"meta"`
}

// parseListing turns one catalog page into detail requests and, when the
// server reports more pages, exactly one next-page request.
func (s *Spider) parseListing(r *colly.Response, rc RequestContext) {
	var envelope listingEnvelope
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		TotalDrops.WithLabelValues(string(StageList)).Inc()
		s.logger.Warn("Listing page is not JSON; dropping",
			zap.String("url", r.Request.URL.String()),
			zap.String("category", rc.RootCategorySlug),
			zap.Int("page", rc.Page),
			zap.Error(err))
		return
	}
	TotalListingPages.Inc()

	for _, stub := range envelope.Results {
		slug := strings.TrimSpace(stub.Slug)
		if slug == "" {
			continue
		}
		categorySlug := strings.TrimSpace(stub.CategorySlug)
		if categorySlug == "" {
			categorySlug = rc.RootCategorySlug
		}
		s.request(
			s.endpoints.DetailURL(s.cityUUID, slug),
			RequestContext{
				Stage:        StageDetail,
				CategorySlug: categorySlug,
				ProductURL:   s.endpoints.ProductPageURL(categorySlug, slug),
			},
		)
	}

	if envelope.Meta.HasMorePages {
		page := rc.Page
		if page < 1 {
			page = 1
		}
		s.requestListing(rc.RootCategorySlug, page+1)
	}
}

// parseDetail normalizes one product payload and emits the item.
func (s *Spider) parseDetail(r *colly.Response, rc RequestContext) {
	requestURL := r.Request.URL.String()
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		s.dropDetail(requestURL, "not JSON", err)
		return
	}
	if !isJSONObject(envelope.Results) {
		s.dropDetail(requestURL, "results is not an object", nil)
		return
	}
	product, err := catalog.DecodeRawProduct(envelope.Results)
	if err != nil {
		s.dropDetail(requestURL, "malformed product", err)
		return
	}

	item := s.normalizer.Normalize(product, rc.ProductURL)
	if err := s.sink.Emit(s.ctx, item); err != nil {
		s.logger.Error("Failed to emit item", zap.String("url", rc.ProductURL), zap.Error(err))
		return
	}
	TotalItems.Inc()
}

func (s *Spider) dropDetail(requestURL, reason string, err error) {
	TotalDrops.WithLabelValues(string(StageDetail)).Inc()
	s.logger.Warn("Dropping product detail",
		zap.String("url", requestURL), zap.String("reason", reason), zap.Error(err))
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// handleError implements the failure taxonomy: transient failures retry with
// backoff, a finally-failed city-set aborts the crawl, and finally-failed
// listing or detail requests drop only themselves.
func (s *Spider) handleError(r *colly.Response, err error) {
	rc := requestContext(r.Request)
	attempt := retryAttempt(r.Request)
	if s.ctx.Err() == nil && s.retry.ShouldRetry(r.StatusCode, attempt, err) {
		s.scheduleRetry(r, attempt)
		return
	}

	switch rc.Stage {
	case StageSetCity:
		s.fail(fmt.Errorf("set city failed: status %d: %w", r.StatusCode, err))
	case StageList:
		TotalDrops.WithLabelValues(string(StageList)).Inc()
		s.logger.Warn("Dropping listing page",
			zap.String("url", r.Request.URL.String()),
			zap.String("category", rc.RootCategorySlug),
			zap.Int("page", rc.Page),
			zap.Int("status", r.StatusCode),
			zap.Error(err))
	case StageDetail:
		TotalDrops.WithLabelValues(string(StageDetail)).Inc()
		s.logger.Warn("Dropping product detail",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Error(err))
	default:
		s.logger.Warn("Request failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Error(err))
	}
}

// scheduleRetry re-submits the request after a backoff. The retry bookkeeping
// keeps Run's wait loop alive until the re-submitted request settles.
func (s *Spider) scheduleRetry(r *colly.Response, attempt int) {
	TotalRetries.Inc()
	bumpRetryAttempt(r.Request)
	delay := s.retry.Backoff(attempt)
	s.logger.Warn("Retrying request",
		zap.String("url", r.Request.URL.String()),
		zap.Int("attempt", attempt+1),
		zap.Int("status", r.StatusCode),
		zap.Duration("backoff", delay))

	s.pendingRetries.Add(1)
	s.retryWG.Add(1)
	go func() {
		defer s.retryWG.Done()
		defer s.pendingRetries.Add(-1)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}
		if err := r.Request.Retry(); err != nil {
			s.logger.Warn("Retry submit failed",
				zap.String("url", r.Request.URL.String()), zap.Error(err))
		}
	}()
}

func (s *Spider) fail(err error) {
	s.failOnce.Do(func() {
		s.fatal = err
		s.logger.Error("Fatal crawl error", zap.Error(err))
	})
}

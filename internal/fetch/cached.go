package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/platform-decider/internal/db"
)

// PageStore is the persistence the cached fetcher needs. *db.DB implements it.
type PageStore interface {
	ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error)
	GetFreshDocumentPage(ctx context.Context, pageURL string, maxAge time.Duration) (*db.DocumentPage, error)
	UpsertDocumentPage(ctx context.Context, page *db.DocumentPage) error
	RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error
	ExpireDocumentPage(ctx context.Context, pageURL string) error
}

// CachedFetcher wraps URL fetching with database-backed caching.
type CachedFetcher struct {
	store     PageStore
	options   *Options
	cacheTTL  time.Duration
	skipCache bool
	verbose   bool
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Verbose   bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: db.DefaultPageCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a cached fetcher. A nil store disables caching.
func NewCachedFetcher(store PageStore, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	opts := config.Options
	if opts == nil {
		opts = DefaultOptions()
	}
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = db.DefaultPageCacheTTL
	}
	return &CachedFetcher{
		store:     store,
		options:   opts,
		cacheTTL:  ttl,
		skipCache: config.SkipCache,
		verbose:   config.Verbose,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	Platform  DocPlatform
	FromCache bool
	PageID    uuid.UUID
}

func (f *CachedFetcher) caching() bool {
	return f.store != nil && !f.skipCache
}

// Fetch retrieves a document URL, serving it from cache while fresh.
// Text is extracted with the detected platform's selectors.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	platform := DetectPlatform(urlStr)

	if f.caching() {
		skip, reason, err := f.store.ShouldSkipURL(ctx, urlStr)
		if err != nil {
			return nil, fmt.Errorf("failed to check skip status: %w", err)
		}
		if skip {
			return nil, &Error{URL: urlStr, Message: fmt.Sprintf("URL skipped: %s", reason)}
		}

		cached, err := f.store.GetFreshDocumentPage(ctx, urlStr, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			if f.verbose {
				log.Printf("[VERBOSE] Cache hit for %s", urlStr)
			}
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					HTML:       derefString(cached.RawHTML),
					Text:       derefString(cached.ParsedText),
					StatusCode: derefInt(cached.HTTPStatus),
				},
				Platform:  platform,
				FromCache: true,
				PageID:    cached.ID,
			}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		if f.store != nil {
			statusCode := 0
			if result != nil {
				statusCode = result.StatusCode
			}
			if recErr := f.store.RecordFailedFetch(ctx, urlStr, statusCode, err.Error()); recErr != nil && f.verbose {
				log.Printf("[VERBOSE] Failed to record fetch failure: %v", recErr)
			}
		}
		return nil, err
	}

	if !result.IsPDF() {
		text, err := ExtractMainText(result.HTML, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
		if err != nil {
			return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
		}
		result.Text = text
	}

	out := &CachedResult{Result: result, Platform: platform}
	if f.store == nil || result.IsPDF() {
		return out, nil
	}

	platformName := string(platform)
	page := &db.DocumentPage{
		URL:         urlStr,
		Platform:    &platformName,
		RawHTML:     &result.HTML,
		ParsedText:  &result.Text,
		HTTPStatus:  &result.StatusCode,
		FetchStatus: db.FetchStatusSuccess,
	}
	if err := f.store.UpsertDocumentPage(ctx, page); err != nil {
		// The fetch itself succeeded; a cache write failure only costs a refetch.
		if f.verbose {
			log.Printf("[VERBOSE] Failed to cache %s: %v", urlStr, err)
		}
		return out, nil
	}
	out.PageID = page.ID
	return out, nil
}

// InvalidateCache forces a re-fetch of urlStr on the next request.
func (f *CachedFetcher) InvalidateCache(ctx context.Context, urlStr string) error {
	if f.store == nil {
		return nil
	}
	return f.store.ExpireDocumentPage(ctx, urlStr)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

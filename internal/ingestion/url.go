package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/platform-decider/internal/fetch"
)

var (
	// ErrInvalidURL is returned when URL is malformed
	ErrInvalidURL = errors.New("invalid URL")
	// ErrHTTPRequestFailed is returned when HTTP request fails
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when content extraction fails
	ErrContentExtractionFailed = errors.New("content extraction failed")
	// ErrEmptyDocument is returned when a document has no text after cleaning
	ErrEmptyDocument = errors.New("document is empty")
)

// URLOptions controls how a PRD URL is ingested
type URLOptions struct {
	// APIKey enables the LLM outline pass when non-empty.
	APIKey string
	// UseBrowser re-renders client-side pages in headless Chrome when the
	// HTTP fetch yields too little text.
	UseBrowser bool
	Verbose    bool
	// Fetcher defaults to an uncached fetcher.
	Fetcher *fetch.CachedFetcher
}

// IngestFromURL fetches a PRD from a URL, extracts and cleans its text, and
// returns it with metadata. Platform-specific selectors are chosen by host.
func IngestFromURL(ctx context.Context, urlStr string, opts URLOptions) (string, *Metadata, error) {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(nil, nil)
	}

	platform := fetch.DetectPlatform(urlStr)
	if opts.Verbose {
		log.Printf("[VERBOSE] URL: %s", urlStr)
		log.Printf("[VERBOSE] Detected platform: %s", platform)
	}

	result, err := fetcher.Fetch(ctx, urlStr)
	if err != nil {
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) && fetchErr.Message == "invalid URL" {
			return "", nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	format := FormatHTML
	textContent := result.Text
	if result.IsPDF() {
		format = FormatPDF
		textContent, err = ExtractPDFText([]byte(result.HTML))
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
		}
	}
	if opts.Verbose {
		log.Printf("[VERBOSE] Extracted text: %d chars (cached=%t)", len(textContent), result.FromCache)
	}

	if opts.UseBrowser && format == FormatHTML && fetch.ShouldUseBrowser(textContent) {
		textContent = renderWithBrowser(ctx, urlStr, platform, textContent, opts.Verbose)
	}

	cleanedText := CleanText(textContent)
	if cleanedText == "" {
		return "", nil, fmt.Errorf("%w: %s", ErrEmptyDocument, urlStr)
	}

	metadata := NewMetadata(cleanedText, urlStr)
	metadata.Format = format
	metadata.Platform = string(platform)
	metadata.FromCache = result.FromCache

	if opts.APIKey == "" {
		return cleanedText, metadata, nil
	}

	if opts.Verbose {
		log.Printf("[VERBOSE] Calling LLM for PRD outline...")
	}
	outline, err := ExtractWithLLM(ctx, cleanedText, opts.APIKey)
	if err != nil {
		if opts.Verbose {
			log.Printf("[VERBOSE] LLM outline failed: %v, using cleaned text", err)
		}
		return cleanedText, metadata, nil
	}
	if opts.Verbose {
		log.Printf("[VERBOSE] Outline: product=%q features=%d", outline.Product, len(outline.Features))
	}
	metadata.Product = outline.Product
	return FormatOutline(outline), metadata, nil
}

// renderWithBrowser returns browser-rendered text, or fallback when rendering fails.
func renderWithBrowser(ctx context.Context, urlStr string, platform fetch.DocPlatform, fallback string, verbose bool) string {
	if verbose {
		log.Printf("[VERBOSE] Content too short (%d chars < %d), falling back to browser rendering...",
			len(fallback), fetch.MinContentLength)
	}

	html, err := fetch.BrowserSimple(ctx, urlStr, verbose)
	if err != nil {
		if verbose {
			log.Printf("[VERBOSE] Browser rendering failed: %v, using HTTP content", err)
		}
		return fallback
	}

	text, err := fetch.ExtractMainText(html, fetch.PlatformContentSelectors(platform), fetch.PlatformNoiseSelectors(platform)...)
	if err != nil {
		if verbose {
			log.Printf("[VERBOSE] Browser content extraction failed: %v", err)
		}
		return fallback
	}
	return text
}

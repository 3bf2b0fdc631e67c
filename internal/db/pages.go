package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const pageColumns = `id, url, platform, raw_html, parsed_text, content_hash, http_status,
	fetch_status, error_message, is_permanent_failure, retry_count, retry_after,
	fetched_at, expires_at, created_at, updated_at`

// GetDocumentPageByURL retrieves a cached page regardless of freshness
func (db *DB) GetDocumentPageByURL(ctx context.Context, pageURL string) (*DocumentPage, error) {
	var p DocumentPage
	err := db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM document_pages WHERE url = $1`,
		pageURL,
	).Scan(&p.ID, &p.URL, &p.Platform, &p.RawHTML, &p.ParsedText, &p.ContentHash, &p.HTTPStatus,
		&p.FetchStatus, &p.ErrorMessage, &p.IsPermanentFailure, &p.RetryCount, &p.RetryAfter,
		&p.FetchedAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document page: %w", err)
	}
	return &p, nil
}

// GetFreshDocumentPage returns a successful page fetched within maxAge, or nil
func (db *DB) GetFreshDocumentPage(ctx context.Context, pageURL string, maxAge time.Duration) (*DocumentPage, error) {
	page, err := db.GetDocumentPageByURL(ctx, pageURL)
	if err != nil || page == nil {
		return nil, err
	}
	if !page.IsFresh(maxAge) || page.FetchStatus != FetchStatusSuccess {
		return nil, nil
	}
	return page, nil
}

// ShouldSkipURL reports whether a URL previously failed permanently or is in retry backoff
func (db *DB) ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error) {
	page, err := db.GetDocumentPageByURL(ctx, pageURL)
	if err != nil {
		return false, "", err
	}
	if page == nil {
		return false, "", nil
	}

	if page.IsPermanentFailure {
		reason := "permanent failure"
		if page.ErrorMessage != nil {
			reason = *page.ErrorMessage
		}
		return true, reason, nil
	}

	if page.RetryAfter != nil && time.Now().Before(*page.RetryAfter) {
		return true, "retry backoff", nil
	}

	return false, "", nil
}

// UpsertDocumentPage stores a successful fetch and fills in page.ID and timestamps
func (db *DB) UpsertDocumentPage(ctx context.Context, page *DocumentPage) error {
	var contentHash *string
	if page.RawHTML != nil {
		hash := HashContent(*page.RawHTML)
		contentHash = &hash
	}

	expiresAt := page.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		expiresAt = &t
	}

	fetchStatus := page.FetchStatus
	if fetchStatus == "" {
		fetchStatus = FetchStatusSuccess
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO document_pages (url, platform, raw_html, parsed_text, content_hash,
		                             http_status, fetch_status, error_message, is_permanent_failure,
		                             retry_count, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, NOW(), $10)
		 ON CONFLICT (url) DO UPDATE SET
		     platform = COALESCE($2, document_pages.platform),
		     raw_html = $3,
		     parsed_text = $4,
		     content_hash = $5,
		     http_status = $6,
		     fetch_status = $7,
		     error_message = $8,
		     is_permanent_failure = $9,
		     retry_count = 0,
		     retry_after = NULL,
		     fetched_at = NOW(),
		     expires_at = $10,
		     updated_at = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.URL, page.Platform, page.RawHTML, page.ParsedText, contentHash,
		page.HTTPStatus, fetchStatus, page.ErrorMessage, page.IsPermanentFailure, expiresAt,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document page: %w", err)
	}
	page.ContentHash = contentHash
	page.FetchStatus = fetchStatus
	page.ExpiresAt = expiresAt
	return nil
}

// RecordFailedFetch stores a failed fetch with exponential retry backoff:
// 1 min, 5 min, 25 min, then capped at 2 hours.
func (db *DB) RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error {
	isPermanent := IsPermanentHTTPStatus(httpStatus)
	fetchStatus := FetchStatusError
	if httpStatus > 0 {
		fetchStatus = FetchStatusFromHTTP(httpStatus)
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO document_pages (url, http_status, fetch_status, error_message, is_permanent_failure,
		                             retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, 1,
		         CASE WHEN $5 THEN NULL ELSE NOW() + INTERVAL '1 minute' END,
		         NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     http_status = $2,
		     fetch_status = $3,
		     error_message = $4,
		     is_permanent_failure = $5 OR document_pages.is_permanent_failure,
		     retry_count = document_pages.retry_count + 1,
		     retry_after = CASE
		         WHEN $5 OR document_pages.is_permanent_failure THEN NULL
		         ELSE NOW() + LEAST(
		             INTERVAL '1 minute' * POWER(5, LEAST(document_pages.retry_count, 3)),
		             INTERVAL '2 hours'
		         )
		     END,
		     fetched_at = NOW(),
		     updated_at = NOW()`,
		pageURL, httpStatus, fetchStatus, errorMsg, isPermanent,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// ExpireDocumentPage forces the next lookup for a URL to miss the cache
func (db *DB) ExpireDocumentPage(ctx context.Context, pageURL string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE document_pages SET expires_at = NOW() - INTERVAL '1 second', updated_at = NOW() WHERE url = $1`,
		pageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to expire document page: %w", err)
	}
	return nil
}

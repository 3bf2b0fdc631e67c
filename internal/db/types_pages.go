package db

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// DocumentPage is a cached fetch of a remote PRD
type DocumentPage struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	Platform    *string   `json:"platform,omitempty"`
	RawHTML     *string   `json:"-"`
	ParsedText  *string   `json:"parsed_text,omitempty"`
	ContentHash *string   `json:"content_hash,omitempty"`
	HTTPStatus  *int      `json:"http_status,omitempty"`

	FetchStatus        string     `json:"fetch_status"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
	IsPermanentFailure bool       `json:"is_permanent_failure"`
	RetryCount         int        `json:"retry_count"`
	RetryAfter         *time.Time `json:"retry_after,omitempty"`

	FetchedAt time.Time  `json:"fetched_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FetchStatus constants for document pages
const (
	FetchStatusSuccess  = "success"
	FetchStatusError    = "error"
	FetchStatusNotFound = "not_found" // 404/410
	FetchStatusBlocked  = "blocked"   // 403/429
)

// DefaultPageCacheTTL is how long a fetched document stays fresh.
// PRDs change more often than marketing pages, so this is a day.
const DefaultPageCacheTTL = 24 * time.Hour

// IsPermanentHTTPStatus returns true for status codes that will not recover on retry
func IsPermanentHTTPStatus(status int) bool {
	switch status {
	case 404, 410, 451:
		return true
	default:
		return false
	}
}

// FetchStatusFromHTTP determines fetch status from HTTP status code
func FetchStatusFromHTTP(status int) string {
	switch {
	case status >= 200 && status < 300:
		return FetchStatusSuccess
	case status == 404 || status == 410:
		return FetchStatusNotFound
	case status == 403 || status == 429:
		return FetchStatusBlocked
	default:
		return FetchStatusError
	}
}

// HashContent computes SHA-256 hash of content for change detection
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// IsExpired reports whether the explicit expiry has passed
func (p *DocumentPage) IsExpired() bool {
	if p.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*p.ExpiresAt)
}

// IsFresh returns true if the page was fetched within maxAge and has not expired
func (p *DocumentPage) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge && !p.IsExpired()
}

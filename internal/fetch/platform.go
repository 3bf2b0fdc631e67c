package fetch

import (
	"net/url"
	"strings"
)

// DocPlatform represents a known document hosting platform.
type DocPlatform string

const (
	// DocPlatformNotion is a Notion page
	DocPlatformNotion DocPlatform = "notion"
	// DocPlatformConfluence is an Atlassian Confluence page
	DocPlatformConfluence DocPlatform = "confluence"
	// DocPlatformGoogleDocs is a published Google Doc
	DocPlatformGoogleDocs DocPlatform = "google-docs"
	// DocPlatformGitHub is a README or markdown file rendered by GitHub
	DocPlatformGitHub DocPlatform = "github"
	// DocPlatformUnknown is an unrecognized host
	DocPlatformUnknown DocPlatform = "unknown"
)

// DetectPlatform identifies the document platform from a URL.
func DetectPlatform(urlStr string) DocPlatform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return DocPlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	path := strings.ToLower(parsed.Path)

	switch {
	case host == "notion.so" || strings.HasSuffix(host, ".notion.so") || strings.HasSuffix(host, ".notion.site"):
		return DocPlatformNotion
	case strings.HasSuffix(host, ".atlassian.net") && strings.HasPrefix(path, "/wiki"),
		strings.HasPrefix(host, "confluence."):
		return DocPlatformConfluence
	case host == "docs.google.com" && strings.HasPrefix(path, "/document"):
		return DocPlatformGoogleDocs
	case host == "github.com" || host == "www.github.com":
		return DocPlatformGitHub
	}

	return DocPlatformUnknown
}

// NeedsBrowser reports whether pages on the platform render client-side.
func (p DocPlatform) NeedsBrowser() bool {
	return p == DocPlatformNotion || p == DocPlatformConfluence
}

// PlatformContentSelectors returns content selectors for a specific platform.
func PlatformContentSelectors(platform DocPlatform) []string {
	switch platform {
	case DocPlatformNotion:
		return []string{
			".notion-page-content",
			".notion-scroller",
			"main",
		}
	case DocPlatformConfluence:
		return []string{
			"#main-content",
			".wiki-content",
			"[data-testid='renderer-page']",
			".ak-renderer-document",
		}
	case DocPlatformGoogleDocs:
		return []string{
			"#contents",
			".doc-content",
			"#doc-content",
		}
	case DocPlatformGitHub:
		return []string{
			"article.markdown-body",
			".markdown-body",
			"#readme",
		}
	default:
		return DocumentSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform DocPlatform) []string {
	common := []string{
		".cookie-consent",
		".gdpr-notice",
		".share-buttons",
		".comments",
		"#comments",
		".breadcrumbs",
		".table-of-contents",
	}

	switch platform {
	case DocPlatformNotion:
		return append(common,
			".notion-topbar",
			".notion-sidebar",
			".notion-page-block-children .notion-collection_view-block",
		)
	case DocPlatformConfluence:
		return append(common,
			"#likes-and-labels-container",
			".page-metadata",
			"#comments-section",
		)
	case DocPlatformGoogleDocs:
		return append(common,
			"#banners",
			"#footer",
		)
	case DocPlatformGitHub:
		return append(common,
			".file-navigation",
			".Box-header",
			".anchor",
		)
	default:
		return common
	}
}

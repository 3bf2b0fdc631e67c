package ratelimit

import (
	"net/http"
	"strings"
)

// Exempt reports whether a request is never rate limited
func Exempt(method, path string) bool {
	return method == http.MethodGet && path == "/health"
}

// Match returns the rule for a request. Exact paths win over prefixes,
// and the longest matching prefix wins among prefixes.
func Match(method, path string, rules []Rule) (Rule, bool) {
	for _, rule := range rules {
		if rule.Method == method && rule.Path == path {
			return rule, true
		}
	}

	var best Rule
	found := false
	for _, rule := range rules {
		if rule.Method != method || !strings.HasSuffix(rule.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, rule.Path) && len(rule.Path) > len(best.Path) {
			best = rule
			found = true
		}
	}
	return best, found
}

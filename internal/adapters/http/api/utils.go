package api

import (
	"net/http"
	"strings"
)

// pathParam returns the single path segment after prefix, or "" when the
// remainder is empty or nested.
func pathParam(r *http.Request, prefix string) string {
	p := strings.TrimPrefix(r.URL.Path, prefix)
	if p == r.URL.Path || p == "" || strings.Contains(p, "/") {
		return ""
	}
	return p
}

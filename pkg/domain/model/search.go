package model

import "strings"

// DefaultURLFields is the precedence list used to pick an image URL out of a search
// entry. The first field that holds a non-empty string wins.
var DefaultURLFields = []string{"original", "image"}

// SearchRequest is one page request issued by the paginator. PageCursor starts at 0
// and only ever moves forward within one search.
type SearchRequest struct {
	Query       string
	TargetCount int
	PageCursor  int
}

// NextPage returns a copy of the request pointing at the following page
func (r SearchRequest) NextPage() SearchRequest {
	r.PageCursor++
	return r
}

// SearchEntry is a single raw result entry returned by the search API. Only a few
// fields are interpreted, so the entry is kept schema-less.
type SearchEntry map[string]any

// URL returns the value of the first field in fields that is present and holds a
// non-empty string.
func (e SearchEntry) URL(fields []string) (string, bool) {
	for _, field := range fields {
		v, ok := e[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, true
		}
	}
	return "", false
}

// ImageCandidate is an image URL discovered by search and not fetched yet
type ImageCandidate struct {
	SourceURL string `json:"source_url"`
}

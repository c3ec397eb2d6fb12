// Package search turns query terms into candidate result URLs using
// public web search backends.
package search

import (
	"context"
	"strings"
)

// Query is a single search bucket: one term scoped to one region.
type Query struct {
	Term   string
	Region string
}

// String renders the query the way it is typed into a search box.
func (q Query) String() string {
	if q.Region == "" {
		return q.Term
	}
	return strings.TrimSpace(q.Term + " " + q.Region)
}

// Backend is a web search engine that can resolve a query into result
// URLs. Implementations return at most maxResults URLs in the order the
// engine ranked them.
type Backend interface {
	Name() string
	Search(ctx context.Context, q Query, maxResults int) ([]string, error)
}

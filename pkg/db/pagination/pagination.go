// Package pagination implements opaque cursor pagination tokens.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// DefaultPageSize is used when a request does not specify a page size.
const DefaultPageSize = 50

// Pagination carries the caller-facing paging parameters.
type Pagination struct {
	PageToken string
	PageSize  int
}

// Cursor identifies the last row of a page.
type Cursor struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// PageInfo describes the page returned to the caller.
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// EncodeCursor serializes a cursor into an opaque token.
func EncodeCursor(cursor Cursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, errors.New("empty page token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, err
	}
	var cursor Cursor
	if err := json.Unmarshal(payload, &cursor); err != nil {
		return Cursor{}, err
	}
	return cursor, nil
}

// BuildCursorPageInfo computes page info from a result set fetched with one
// extra row beyond the page size.
func BuildCursorPageInfo[T any](items []*T, pageSize int, token func(*T) string) *PageInfo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	info := &PageInfo{}
	if len(items) <= pageSize {
		return info
	}
	last := items[pageSize-1]
	if last != nil && token != nil {
		info.NextPageToken = token(last)
	}
	info.HasMore = true
	return info
}

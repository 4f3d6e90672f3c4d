// Package pagination implements opaque keyset cursors over (created_at, id).
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when the caller does not send one.
	DefaultLimit = 25
	// MaxLimit caps how many rows a single page may request.
	MaxLimit = 100
)

// Params holds the pagination inputs handed from controllers to services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded keyset position of the last row on the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps a requested limit into [1, MaxLimit], substituting
// DefaultLimit for missing or non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer adds one to the normalized limit so queries can detect
// whether another page exists without a second round trip.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// HasNextPage reports whether a query issued with LimitWithBuffer returned
// more rows than the requested page size.
func HasNextPage(fetched, limit int) bool {
	return fetched > NormalizeLimit(limit)
}

// EncodeCursor serializes a cursor into its opaque base64 form.
func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes an opaque cursor. Empty input yields a nil cursor, which
// queries treat as the first page.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	before, after, found := strings.Cut(string(decoded), "|")
	if !found {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, before)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(after)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}

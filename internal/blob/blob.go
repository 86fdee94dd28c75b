// Package blob stores image bytes. S3 talks to Cloudflare R2 (or any S3
// API); Memory keeps objects in process for local runs and tests.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// ImageKey is the only way a blob key for an image is built.
func ImageKey(lobbyID, imageID string) string {
	return fmt.Sprintf("%s/%s.jpeg", lobbyID, imageID)
}

// LobbyPrefix covers every object stored for a lobby.
func LobbyPrefix(lobbyID string) string {
	return lobbyID + "/"
}

// GetOptions carries HTTP conditional and range request headers.
type GetOptions struct {
	IfMatch           string
	IfNoneMatch       string
	IfModifiedSince   *time.Time
	IfUnmodifiedSince *time.Time
	// Range is a raw "bytes=start-end" header value.
	Range string
}

// Object is a fetched blob. When a conditional check short-circuits the
// fetch, Body is nil and NotModified or PreconditionFailed is set.
type Object struct {
	Key                string
	ETag               string
	ContentType        string
	Size               int64
	LastModified       time.Time
	Body               io.ReadCloser
	NotModified        bool
	PreconditionFailed bool
}

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Get returns nil, nil when the key does not exist.
	Get(ctx context.Context, key string, opts GetOptions) (*Object, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// QuoteETag normalises an etag to its quoted header form.
func QuoteETag(etag string) string {
	if etag == "" || strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}

package blob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data         []byte
	etag         string
	contentType  string
	lastModified time.Time
}

// Memory is an in-process Store with the same conditional and range
// behaviour as S3.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject), now: time.Now}
}

func (m *Memory) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	sum := md5.Sum(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{
		data:         data,
		etag:         `"` + hex.EncodeToString(sum[:]) + `"`,
		contentType:  contentType,
		lastModified: m.now().UTC().Truncate(time.Second),
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string, opts GetOptions) (*Object, error) {
	m.mu.RLock()
	o, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	obj := &Object{Key: key, ETag: o.etag, ContentType: o.contentType, LastModified: o.lastModified}
	switch {
	case opts.IfMatch != "" && !etagMatches(opts.IfMatch, o.etag):
		obj.PreconditionFailed = true
		return obj, nil
	case opts.IfUnmodifiedSince != nil && o.lastModified.After(*opts.IfUnmodifiedSince):
		obj.PreconditionFailed = true
		return obj, nil
	case opts.IfNoneMatch != "" && etagMatches(opts.IfNoneMatch, o.etag):
		obj.NotModified = true
		return obj, nil
	case opts.IfNoneMatch == "" && opts.IfModifiedSince != nil && !o.lastModified.After(*opts.IfModifiedSince):
		obj.NotModified = true
		return obj, nil
	}

	data := o.data
	if start, end, ok := parseRange(opts.Range, int64(len(data))); ok {
		data = data[start : end+1]
	}
	obj.Size = int64(len(data))
	obj.Body = io.NopCloser(bytes.NewReader(data))
	return obj, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// etagMatches checks a comma separated If-Match / If-None-Match list.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || QuoteETag(candidate) == etag {
			return true
		}
	}
	return false
}

// parseRange understands a single "bytes=" range. Anything else is ignored
// and the whole object is served.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	rng, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(rng, ",") || size == 0 {
		return 0, 0, false
	}
	first, last, found := strings.Cut(rng, "-")
	if !found {
		return 0, 0, false
	}
	var err error
	switch {
	case first == "":
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	default:
		start, err = strconv.ParseInt(first, 10, 64)
		if err != nil || start >= size {
			return 0, 0, false
		}
		end = size - 1
		if last != "" {
			end, err = strconv.ParseInt(last, 10, 64)
			if err != nil || end < start {
				return 0, 0, false
			}
			if end >= size {
				end = size - 1
			}
		}
		return start, end, true
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/internal/transform"
	"github.com/stretchr/testify/require"
)

// upperTransformer stands in for libvips: it tags the bytes so tests can
// see the transform ran and with which options.
type upperTransformer struct {
	mu   sync.Mutex
	last transform.Options
}

func (u *upperTransformer) Transform(input []byte, opts transform.Options) ([]byte, error) {
	u.mu.Lock()
	u.last = opts
	u.mu.Unlock()
	return append([]byte(fmt.Sprintf("q%d:", opts.Quality)), input...), nil
}

// flakyBlobs fails Put for keys accepted by failPut.
type flakyBlobs struct {
	*blob.Memory
	failPut func(key string) bool
}

func (f *flakyBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if f.failPut != nil && f.failPut(key) {
		return errors.New("r2 unavailable")
	}
	return f.Memory.Put(ctx, key, body, size, contentType)
}

type fixture struct {
	svc   *Service
	store *store.Store
	blobs *flakyBlobs
	tr    *upperTransformer
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := store.Open("sqlite", fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name), hclog.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		store: store.New(db),
		blobs: &flakyBlobs{Memory: blob.NewMemory()},
		tr:    &upperTransformer{},
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.store, f.blobs, f.tr, hclog.NewNullLogger())
	var mu sync.Mutex
	f.svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func jpeg(name, body string) UploadFile {
	return UploadFile{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(body))), nil
		},
	}
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.store.DB().Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (f *fixture) blobKeys(t *testing.T, prefix string) []string {
	t.Helper()
	keys, err := f.blobs.List(context.Background(), prefix)
	require.NoError(t, err)
	return keys
}

func readObject(t *testing.T, obj *blob.Object) string {
	t.Helper()
	require.NotNil(t, obj.Body)
	defer obj.Body.Close()
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return string(b)
}

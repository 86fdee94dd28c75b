// Package service holds the lobby, image and reaction rules. It is the only
// code that touches both the relational store and the blob store.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/internal/transform"
	"golang.org/x/sync/errgroup"
)

// maxParallelBlobOps bounds the blob calls one request runs at once.
const maxParallelBlobOps = 16

type Service struct {
	store  *store.Store
	blobs  blob.Store
	images transform.Transformer
	log    hclog.Logger
	now    func() time.Time
}

func New(st *store.Store, blobs blob.Store, images transform.Transformer, log hclog.Logger) *Service {
	return &Service{
		store:  st,
		blobs:  blobs,
		images: images,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// deleteBlobs removes keys concurrently. Failures are logged and never
// returned: the rows that pointed at these objects are already gone or
// about to be.
func (s *Service) deleteBlobs(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(maxParallelBlobOps)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.log.Warn("blob delete failed", "key", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Package sweeper deletes post attachments that no live post refers to.
// Uploads are cleaned up best-effort when a post fails; this is the pass
// that catches what those cleanups missed.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]media.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

type PostReader interface {
	GetPost(ctx context.Context, id string) (*types.Post, error)
}

// Result counts what one sweep did.
type Result struct {
	Scanned int
	Deleted int
	Failed  int
}

type Sweeper struct {
	objects  ObjectStore
	posts    PostReader
	interval time.Duration
	// objects younger than grace may belong to a post still uploading
	grace  time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func New(objects ObjectStore, posts PostReader, interval, grace time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		objects:  objects,
		posts:    posts,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Start sweeps once right away and then on every tick until ctx ends.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Media sweeper started", "interval", s.interval.String())

	s.sweepAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Media sweeper shutting down")
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	startTime := time.Now()

	res, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("Media sweep failed",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	s.logger.Info("Completed media sweep",
		"objects_scanned", res.Scanned,
		"objects_deleted", res.Deleted,
		"objects_failed", res.Failed,
		"duration_ms", time.Since(startTime).Milliseconds())
}

// Sweep makes one pass over the posts folder.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result

	objects, err := s.objects.List(ctx, media.PostsPrefix)
	if err != nil {
		return res, fmt.Errorf("list objects: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	// one lookup per post, not per attachment
	orphaned := make(map[string]bool)

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++

		if obj.LastModified.After(cutoff) {
			continue
		}
		postID, ok := media.PostIDFromKey(obj.Key)
		if !ok {
			continue
		}

		orphan, seen := orphaned[postID]
		if !seen {
			orphan, err = s.isOrphan(ctx, postID)
			if err != nil {
				s.logger.Warn("Could not check post", slog.String("post_id", postID), slog.String("error", err.Error()))
				res.Failed++
				continue
			}
			orphaned[postID] = orphan
		}
		if !orphan {
			continue
		}

		if err := s.objects.Delete(ctx, obj.Key); err != nil {
			s.logger.Warn("Could not delete object", slog.String("key", obj.Key), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		res.Deleted++
	}

	return res, nil
}

func (s *Sweeper) isOrphan(ctx context.Context, postID string) (bool, error) {
	p, err := s.posts.GetPost(ctx, postID)
	if errors.Is(err, apperr.ErrPostNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return p.Deleted(), nil
}

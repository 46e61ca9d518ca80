package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/types"
	mediatypes "github.com/princekumarofficial/angelia/internal/types/media"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

// UploadFile is one attachment of a new post. Open is called once, right
// before the file is streamed to the object store.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type PostForm struct {
	ChannelID      string
	Text           string
	IsHighPriority bool
	Files          []UploadFile
}

func (s *Service) validatePostForm(form PostForm) error {
	if strings.TrimSpace(form.ChannelID) == "" {
		return apperr.InvalidArg("channel is required")
	}
	if types.BlankText(form.Text) && len(form.Files) == 0 {
		return apperr.ErrEmptyPost
	}
	if s.opts.MaxFilesPerPost > 0 && len(form.Files) > s.opts.MaxFilesPerPost {
		return apperr.ErrTooManyMedia
	}
	for _, f := range form.Files {
		if !media.ValidateContentType(s.opts.AllowedMimeTypes, f.ContentType) {
			return apperr.ErrUnsupportedMedia
		}
		if s.opts.MaxFileSize > 0 && f.Size > s.opts.MaxFileSize {
			return apperr.InvalidArg(fmt.Sprintf("%s is larger than %d bytes", f.Name, s.opts.MaxFileSize))
		}
	}
	return nil
}

// UploadPost stores every attachment, then the post document. If any step
// fails the objects uploaded so far are removed and no post is written.
func (s *Service) UploadPost(ctx context.Context, authorID string, form PostForm) (*types.Post, error) {
	if err := s.validatePostForm(form); err != nil {
		return nil, err
	}
	channel, err := s.requireReader(ctx, form.ChannelID, authorID)
	if err != nil {
		return nil, err
	}

	postID := uuid.NewString()
	objects := s.backend.Objects()

	var uploaded []string
	items := make([]mediatypes.Item, 0, len(form.Files))

	for i, f := range form.Files {
		key := media.PostObjectKey(postID, i, f.ContentType)
		url, err := uploadOne(ctx, objects, key, f)
		if err != nil {
			s.cleanup(ctx, objects, postID, uploaded)
			return nil, apperr.ErrUploadFailed(err)
		}
		uploaded = append(uploaded, key)
		items = append(items, mediatypes.Item{
			Type: mediatypes.TypeForContentType(f.ContentType),
			URL:  url,
		})
	}

	p := types.Post{
		ID:                    postID,
		AuthorID:              authorID,
		ChannelID:             form.ChannelID,
		Text:                  strings.TrimSpace(form.Text),
		Media:                 items,
		Timestamp:             s.nowMillis(),
		IsHighPriority:        form.IsHighPriority,
		Reactions:             []types.Reaction{},
		Comments:              []types.Comment{},
		ConversationEnrollees: []string{},
	}

	if err := s.db().CreatePost(ctx, p); err != nil {
		s.cleanup(ctx, objects, postID, uploaded)
		return nil, err
	}
	s.store.Posts.UpsertOne(p)

	s.logger.Info("Post uploaded",
		slog.String("post_id", p.ID),
		slog.String("channel_id", p.ChannelID),
		slog.Int("media_count", len(items)))

	if p.IsHighPriority {
		if err := s.backend.Notifier().PostPublished(ctx, p, *channel, s.displayName(authorID)); err != nil {
			s.logger.Warn("Failed to notify subscribers",
				slog.String("post_id", p.ID),
				slog.String("error", err.Error()))
		}
	}

	return &p, nil
}

func uploadOne(ctx context.Context, objects ObjectStore, key string, f UploadFile) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer r.Close()

	return objects.Upload(ctx, key, r, f.Size, f.ContentType)
}

// cleanup removes orphaned attachments. It runs detached from ctx so a
// cancelled request still cleans up; errors are only logged.
func (s *Service) cleanup(ctx context.Context, objects ObjectStore, postID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := objects.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to remove orphaned media",
				slog.String("post_id", postID),
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}
}

// DeletePost soft-deletes a post. Only its author may do so.
func (s *Service) DeletePost(ctx context.Context, postID, userID string) error {
	_, err := s.db().UpdatePost(ctx, postID, func(p *types.Post) error {
		if p.Deleted() {
			return apperr.ErrPostNotFound
		}
		if p.AuthorID != userID {
			return apperr.ErrNotPostAuthor
		}
		deletedAt := s.nowMillis()
		p.MarkedForDeletionAt = &deletedAt
		return nil
	})
	if err != nil {
		return err
	}
	s.store.Posts.RemoveOne(postID)
	return nil
}

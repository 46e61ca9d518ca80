package posts

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
	"github.com/princekumarofficial/angelia/internal/utils/request"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

// FeedItem is a post joined with its author and channel.
type FeedItem struct {
	types.Post
	Author  *users.User    `json:"author"`
	Channel *types.Channel `json:"channel"`
}

type PostHandlers struct {
	feed  *feed.Service
	store *store.Store
	// memory used for multipart parsing, the rest spills to disk
	maxMemory int64
	now       func() time.Time
}

func NewPostHandlers(svc *feed.Service, st *store.Store) *PostHandlers {
	return &PostHandlers{
		feed:      svc,
		store:     st,
		maxMemory: 32 << 20,
		now:       time.Now,
	}
}

// scope picks the demo session's data when the request runs in one.
func (h *PostHandlers) scope(r *http.Request) (*feed.Service, *store.Store) {
	return demo.Scope(r.Context(), h.feed, h.store)
}

func item(st *store.Store, p types.Post) FeedItem {
	return FeedItem{Post: p, Author: st.PostAuthor(p), Channel: st.PostChannel(p)}
}

func items(st *store.Store, posts []types.Post) []FeedItem {
	out := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		out = append(out, item(st, p))
	}
	return out
}

// Feed handles the feed endpoint
// @Summary Get the feed
// @Description Posts of every channel the user follows, newest first. Posts older than the fade window are left out.
// @Tags posts
// @Produce json
// @Param channel query string false "Only posts of this channel"
// @Success 200 {object} response.Response{data=[]FeedItem}
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /feed [get]
func (h *PostHandlers) Feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		_, st := h.scope(r)

		var posts []types.Post
		if channelID := r.URL.Query().Get("channel"); channelID != "" {
			posts = st.ChannelFeed(userID, channelID, h.now())
		} else {
			posts = st.Feed(userID, h.now())
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Feed fetched successfully", items(st, posts)))
	}
}

// GetPost returns one post
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Response{data=FeedItem}
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /posts/{id} [get]
func (h *PostHandlers) GetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		_, st := h.scope(r)

		p := st.PostByID(r.PathValue("id"))
		if p == nil {
			response.FromError(w, apperr.ErrPostNotFound)
			return
		}
		if c := st.PostChannel(*p); c == nil || !c.HasSubscriber(userID) {
			response.FromError(w, apperr.ErrPostNotFound)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post fetched successfully", item(st, *p)))
	}
}

func fileParts(headers []*multipart.FileHeader) []feed.UploadFile {
	files := make([]feed.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, feed.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// CreatePost handles uploading a new post
// @Summary Create a post
// @Description Uploads the attached files to object storage and then stores the post. Nothing is kept if any step fails.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param channelId formData string true "Channel ID"
// @Param text formData string false "Post text"
// @Param isHighPriority formData bool false "Notify subscribers"
// @Param media formData file false "Attachments (repeat the field for several files)"
// @Success 201 {object} response.Response{data=types.Post}
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Not subscribed"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 502 {object} response.Response "Upload failed"
// @Security BearerAuth
// @Router /posts [post]
func (h *PostHandlers) CreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		if err := r.ParseMultipartForm(h.maxMemory); err != nil {
			response.FromError(w, apperr.Wrap(apperr.CodeInvalidArgument, "invalid multipart form", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		highPriority, _ := strconv.ParseBool(r.FormValue("isHighPriority"))
		form := feed.PostForm{
			ChannelID:      r.FormValue("channelId"),
			Text:           r.FormValue("text"),
			IsHighPriority: highPriority,
			Files:          fileParts(r.MultipartForm.File["media"]),
		}

		post, err := svc.UploadPost(r.Context(), userID, form)
		if err != nil {
			slog.Warn("Post upload failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			response.FromError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Post created successfully", post))
	}
}

// DeletePost handles removing a post
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response "Not the author"
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (h *PostHandlers) DeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		if err := svc.DeletePost(r.Context(), r.PathValue("id"), userID); err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post deleted successfully", nil))
	}
}

// ToggleReaction handles adding or removing an emoji reaction
// @Summary Toggle a reaction
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param reaction body types.ReactionRequest true "Emoji"
// @Success 200 {object} response.Response{data=types.Post}
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Not found"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Security BearerAuth
// @Router /posts/{id}/reactions [post]
func (h *PostHandlers) ToggleReaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		var req types.ReactionRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}

		post, err := svc.ToggleReaction(r.Context(), r.PathValue("id"), userID, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		message := "Reaction removed"
		if types.HasReacted(post.Reactions, req.Emoji, userID) {
			message = "Reaction added"
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK(message, post))
	}
}

// AddComment handles commenting on a post
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param comment body types.CommentRequest true "Comment"
// @Success 201 {object} response.Response{data=types.Post}
// @Failure 400 {object} response.Response "Empty comment"
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (h *PostHandlers) AddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		var req types.CommentRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}

		post, err := svc.AddComment(r.Context(), r.PathValue("id"), userID, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Comment added", post))
	}
}

// JoinConversation handles following a post's comment thread
// @Summary Join a conversation
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Response{data=types.Post}
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /posts/{id}/conversation [post]
func (h *PostHandlers) JoinConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		post, err := svc.JoinConversation(r.Context(), r.PathValue("id"), userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Joined conversation", post))
	}
}

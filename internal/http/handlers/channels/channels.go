package channels

import (
	"errors"
	"net/http"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/request"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

// ChannelView is a channel with its shareable invite link.
type ChannelView struct {
	types.Channel
	InviteLink string `json:"inviteLink,omitempty"`
	Owned      bool   `json:"owned"`
}

// InvitePreview is what an invite link shows before joining.
type InvitePreview struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Color       types.Color `json:"color"`
	OwnerName   string      `json:"ownerName"`
}

type ChannelHandlers struct {
	feed         *feed.Service
	store        *store.Store
	inviteOrigin string
}

func NewChannelHandlers(svc *feed.Service, st *store.Store, inviteOrigin string) *ChannelHandlers {
	return &ChannelHandlers{feed: svc, store: st, inviteOrigin: inviteOrigin}
}

// scope picks the demo session's data when the request runs in one.
func (h *ChannelHandlers) scope(r *http.Request) (*feed.Service, *store.Store) {
	return demo.Scope(r.Context(), h.feed, h.store)
}

func (h *ChannelHandlers) view(c types.Channel, userID string) ChannelView {
	v := ChannelView{Channel: c, Owned: c.OwnerID == userID}
	// only owners share the link
	if v.Owned {
		v.InviteLink = feed.InviteLink(h.inviteOrigin, c)
	}
	return v
}

// ListChannels returns every channel the user owns or follows
// @Summary List channels
// @Description Owned channels (daily first) followed by subscriptions.
// @Tags channels
// @Produce json
// @Success 200 {object} response.Response{data=[]ChannelView}
// @Security BearerAuth
// @Router /channels [get]
func (h *ChannelHandlers) ListChannels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		_, st := h.scope(r)

		views := []ChannelView{}
		for _, c := range st.OwnedChannels(userID) {
			views = append(views, h.view(c, userID))
		}
		for _, c := range st.SubscribedChannels(userID) {
			if c.OwnerID != userID {
				views = append(views, h.view(c, userID))
			}
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Channels fetched successfully", views))
	}
}

// CreateChannel creates a custom channel
// @Summary Create a channel
// @Tags channels
// @Accept json
// @Produce json
// @Param channel body types.CreateChannelRequest true "Channel"
// @Success 201 {object} response.Response{data=ChannelView}
// @Failure 400 {object} response.Response "Bad request"
// @Failure 422 {object} response.Response "Channel limit reached"
// @Security BearerAuth
// @Router /channels [post]
func (h *ChannelHandlers) CreateChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		var req types.CreateChannelRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}

		c, err := svc.CreateCustomChannel(r.Context(), userID, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Channel created successfully", h.view(*c, userID)))
	}
}

// EnsureDailyChannel creates the caller's daily channel if it is missing
// @Summary Ensure the daily channel exists
// @Tags channels
// @Produce json
// @Success 200 {object} response.Response{data=ChannelView}
// @Security BearerAuth
// @Router /channels/daily [post]
func (h *ChannelHandlers) EnsureDailyChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		c, err := svc.EnsureDailyChannelExists(r.Context(), userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Daily channel ready", h.view(*c, userID)))
	}
}

// DeleteChannel soft-deletes a custom channel
// @Summary Delete a channel
// @Tags channels
// @Produce json
// @Param id path string true "Channel ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 422 {object} response.Response "Daily channels cannot be deleted"
// @Security BearerAuth
// @Router /channels/{id} [delete]
func (h *ChannelHandlers) DeleteChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		if err := svc.DeleteChannel(r.Context(), r.PathValue("id"), userID); err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Channel deleted successfully", nil))
	}
}

// RegenerateInviteCode replaces a channel's invite code
// @Summary Regenerate the invite link
// @Tags channels
// @Produce json
// @Param id path string true "Channel ID"
// @Success 200 {object} response.Response{data=ChannelView}
// @Failure 403 {object} response.Response "Not the owner"
// @Security BearerAuth
// @Router /channels/{id}/invite-code [post]
func (h *ChannelHandlers) RegenerateInviteCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		c, err := svc.RegenerateInviteCode(r.Context(), r.PathValue("id"), userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Invite link regenerated", h.view(*c, userID)))
	}
}

// Unsubscribe leaves a channel
// @Summary Leave a channel
// @Tags channels
// @Produce json
// @Param id path string true "Channel ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response "Owners cannot leave"
// @Security BearerAuth
// @Router /channels/{id}/subscription [delete]
func (h *ChannelHandlers) Unsubscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		if _, err := svc.Unsubscribe(r.Context(), r.PathValue("id"), userID); err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Left channel", nil))
	}
}

// ResolveInvite shows the channel behind an invite code
// @Summary Preview an invite link
// @Tags invites
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} response.Response{data=InvitePreview}
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /invite/{code} [get]
func (h *ChannelHandlers) ResolveInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, st := h.scope(r)
		c, err := svc.ResolveInvite(r.Context(), r.PathValue("code"))
		if err != nil {
			response.FromError(w, err)
			return
		}

		preview := InvitePreview{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Color:       c.Color,
		}
		if owner, ok := st.Users.Get(c.OwnerID); ok {
			preview.OwnerName = owner.DisplayName()
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Invite found", preview))
	}
}

// JoinByInviteCode subscribes the caller through an invite link
// @Summary Join through an invite link
// @Tags invites
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} response.Response{data=ChannelView}
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /invite/{code}/join [post]
func (h *ChannelHandlers) JoinByInviteCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		c, err := svc.JoinByInviteCode(r.Context(), r.PathValue("code"), userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Joined channel", h.view(*c, userID)))
	}
}

// PendingInvites lists invites waiting for the caller's answer
// @Summary List pending invites
// @Tags invites
// @Produce json
// @Success 200 {object} response.Response{data=[]types.ChannelInvite}
// @Security BearerAuth
// @Router /invites [get]
func (h *ChannelHandlers) PendingInvites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		_, st := h.scope(r)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Invites fetched successfully", st.PendingInvites(userID)))
	}
}

// InviteUser invites another user into a channel
// @Summary Invite a user
// @Tags invites
// @Accept json
// @Produce json
// @Param invite body types.InviteUserRequest true "Invite"
// @Success 201 {object} response.Response{data=types.ChannelInvite}
// @Failure 403 {object} response.Response "Not subscribed"
// @Failure 409 {object} response.Response "Already following"
// @Security BearerAuth
// @Router /invites [post]
func (h *ChannelHandlers) InviteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		var req types.InviteUserRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}

		inv, err := svc.InviteUser(r.Context(), userID, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Invite sent", inv))
	}
}

// RespondToInvite accepts or declines an invite
// @Summary Answer an invite
// @Tags invites
// @Accept json
// @Produce json
// @Param id path string true "Invite ID"
// @Param answer body types.InviteResponseRequest true "Answer"
// @Success 200 {object} response.Response{data=types.ChannelInvite}
// @Failure 404 {object} response.Response "Not found"
// @Failure 422 {object} response.Response "Already answered"
// @Security BearerAuth
// @Router /invites/{id}/respond [post]
func (h *ChannelHandlers) RespondToInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		svc, _ := h.scope(r)

		var req types.InviteResponseRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}

		inv, err := svc.RespondToInvite(r.Context(), r.PathValue("id"), userID, req.Accept)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Invite answered", inv))
	}
}

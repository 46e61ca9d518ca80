package demo

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

// SessionResponse is returned when a demo session opens. Token replaces the
// caller's bearer token until the session ends.
type SessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Active    bool   `json:"active"`
}

var errNoSession = apperr.FailedPrecondition("not in a demo session")

// Status reports whether the caller is looking at the demo family
// @Summary Get demo mode
// @Tags demo
// @Produce json
// @Success 200 {object} response.Response{data=types.DemoModeEvent}
// @Security BearerAuth
// @Router /demo [get]
func Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := demo.SessionFromContext(r.Context())
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Demo mode fetched", types.DemoModeEvent{Active: ok}))
	}
}

// Enter opens a private demo session
// @Summary Enter demo mode
// @Description Seeds a private copy of the demo family. Use the returned token as the bearer token to act inside it.
// @Tags demo
// @Produce json
// @Success 201 {object} response.Response{data=SessionResponse}
// @Failure 429 {object} response.Response "Too many sessions"
// @Router /demo/enter [post]
func Enter(sessions *demo.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessions.Enter(r.Context())
		if err != nil {
			slog.Error("Failed to enter demo mode", slog.String("error", err.Error()))
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Demo mode on", SessionResponse{
			Token:     sess.Token,
			SessionID: sess.ID,
			Active:    true,
		}))
	}
}

// Exit ends the caller's demo session
// @Summary Exit demo mode
// @Tags demo
// @Produce json
// @Success 200 {object} response.Response{data=types.DemoModeEvent}
// @Failure 422 {object} response.Response "Not in a demo session"
// @Security BearerAuth
// @Router /demo/exit [post]
func Exit(sessions *demo.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := demo.SessionFromContext(r.Context())
		if !ok {
			response.FromError(w, errNoSession)
			return
		}
		if err := sessions.Exit(sess.ID); err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Demo mode off", types.DemoModeEvent{Active: false}))
	}
}

// Media serves files uploaded in a demo session
// @Summary Get a demo upload
// @Tags demo
// @Produce octet-stream
// @Param session path string true "Demo session id"
// @Param key path string true "Object key"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response "Not found"
// @Router /demo-media/{session}/{key} [get]
func Media(sessions *demo.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessions.Lookup(r.PathValue("session"))
		if !ok {
			response.FromError(w, demo.ErrSessionNotFound)
			return
		}

		data, contentType, ok := sess.Objects.Get(r.PathValue("key"))
		if !ok {
			response.FromError(w, apperr.NotFound("no such upload"))
			return
		}

		w.Header().Set("Content-Type", contentType)
		if _, err := w.Write(data); err != nil {
			slog.Warn("Failed to write demo upload", slog.String("error", err.Error()), slog.String("demo_session", sess.ID))
		}
	}
}

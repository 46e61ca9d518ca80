package prefs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/prefs"
	"github.com/princekumarofficial/angelia/internal/utils/request"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

type ScrollRequest struct {
	Position float64 `json:"position" validate:"gte=0"`
}

// GetPrefs returns the caller's UI flags
// @Summary Get UI preferences
// @Tags prefs
// @Produce json
// @Success 200 {object} response.Response{data=prefs.State}
// @Security BearerAuth
// @Router /prefs [get]
func GetPrefs(p *prefs.Prefs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.RequesterKey(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		state, err := p.Get(r.Context(), userID)
		if err != nil {
			slog.Error("Failed to read prefs", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to read preferences")))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Preferences fetched", state))
	}
}

// DismissBanner hides the welcome banner
// @Summary Dismiss the welcome banner
// @Tags prefs
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /prefs/banner [post]
func DismissBanner(p *prefs.Prefs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.RequesterKey(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		if err := p.DismissBanner(r.Context(), userID); err != nil {
			slog.Error("Failed to dismiss banner", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to save preferences")))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Banner dismissed", nil))
	}
}

// SaveScroll remembers the feed scroll position
// @Summary Save the feed scroll position
// @Tags prefs
// @Accept json
// @Produce json
// @Param scroll body ScrollRequest true "Scroll position"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "Bad request"
// @Security BearerAuth
// @Router /prefs/scroll [put]
func SaveScroll(p *prefs.Prefs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.RequesterKey(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req ScrollRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}
		if err := request.Validate(req); err != nil {
			response.FromError(w, err)
			return
		}

		if err := p.SaveScrollPosition(r.Context(), userID, req.Position); err != nil {
			slog.Error("Failed to save scroll position", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to save preferences")))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Scroll position saved", nil))
	}
}

// ClearPrefs resets the caller's UI flags
// @Summary Reset UI preferences
// @Tags prefs
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /prefs [delete]
func ClearPrefs(p *prefs.Prefs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.RequesterKey(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		if err := p.Clear(r.Context(), userID); err != nil {
			slog.Error("Failed to clear prefs", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to clear preferences")))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Preferences cleared", nil))
	}
}

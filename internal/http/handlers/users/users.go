package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
	"github.com/princekumarofficial/angelia/internal/utils/request"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

// verificationConfirmer is implemented by providers that issue their own
// verification links.
type verificationConfirmer interface {
	ConfirmVerification(ctx context.Context, token string) (*identity.Identity, error)
}

// SessionResponse is returned by sign-up and login.
type SessionResponse struct {
	Session *identity.Session `json:"session"`
	User    *users.User       `json:"user"`
}

type UserHandlers struct {
	feed     *feed.Service
	provider identity.Provider
	logger   *slog.Logger
}

func NewUserHandlers(svc *feed.Service, provider identity.Provider, logger *slog.Logger) *UserHandlers {
	return &UserHandlers{feed: svc, provider: provider, logger: logger}
}

var (
	errPasswordUnsupported = apperr.FailedPrecondition("password sign-in is handled by the identity provider's client")
	errDemoSession         = apperr.FailedPrecondition("not available in a demo session")
)

// service picks the demo session's feed when the request runs in one.
func (h *UserHandlers) service(r *http.Request) *feed.Service {
	if sess, ok := demo.SessionFromContext(r.Context()); ok {
		return sess.Feed
	}
	return h.feed
}

func inDemo(r *http.Request) bool {
	_, ok := demo.SessionFromContext(r.Context())
	return ok
}

func (h *UserHandlers) passwords() (identity.PasswordProvider, bool) {
	p, ok := h.provider.(identity.PasswordProvider)
	return p, ok
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Creates an email/password account and its profile. Only available with the local identity provider.
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} response.Response{data=SessionResponse}
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Email already registered"
// @Router /auth/signup [post]
func (h *UserHandlers) SignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		passwords, ok := h.passwords()
		if !ok {
			response.FromError(w, errPasswordUnsupported)
			return
		}

		var req users.SignUpRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}
		if err := request.Validate(req); err != nil {
			response.FromError(w, err)
			return
		}

		session, err := passwords.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			response.FromError(w, err)
			return
		}

		user, err := h.feed.RegisterUser(r.Context(), session.Identity)
		if err != nil {
			h.logger.Error("Failed to register user", slog.String("error", err.Error()), slog.String("user_id", session.UID))
			response.FromError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("User created successfully", SessionResponse{Session: session, User: user}))
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Signs in with email and password and returns a bearer token. Only available with the local identity provider.
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} response.Response{data=SessionResponse}
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /auth/login [post]
func (h *UserHandlers) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		passwords, ok := h.passwords()
		if !ok {
			response.FromError(w, errPasswordUnsupported)
			return
		}

		var req users.SignInRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}
		if err := request.Validate(req); err != nil {
			response.FromError(w, err)
			return
		}

		session, err := passwords.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			response.FromError(w, err)
			return
		}

		user, err := h.feed.RegisterUser(r.Context(), session.Identity)
		if err != nil {
			response.FromError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("User authenticated successfully", SessionResponse{Session: session, User: user}))
	}
}

// Logout revokes every token of the caller
// @Summary Sign out
// @Tags users
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *UserHandlers) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inDemo(r) {
			response.FromError(w, errDemoSession)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		if err := h.provider.SignOut(r.Context(), userID); err != nil {
			h.logger.Error("Failed to sign out", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Signed out", nil))
	}
}

// Me returns the caller's profile, creating it on first sight
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} response.Response{data=users.User}
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me [get]
func (h *UserHandlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		user, err := h.service(r).RegisterUser(r.Context(), *id)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("User fetched successfully", user))
	}
}

// CompleteProfile stores the profile form
// @Summary Complete the profile
// @Description Saves name, fun fact and avatar, marks sign-up complete and creates the daily channel.
// @Tags users
// @Accept json
// @Produce json
// @Param profile body users.CompleteProfileRequest true "Profile"
// @Success 200 {object} response.Response{data=users.User}
// @Failure 400 {object} response.Response "Bad request"
// @Failure 422 {object} response.Response "Email not verified"
// @Security BearerAuth
// @Router /me/profile [put]
func (h *UserHandlers) CompleteProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req users.CompleteProfileRequest
		if err := request.DecodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}

		current, err := h.service(r).RegisterUser(r.Context(), *id)
		if err != nil {
			response.FromError(w, err)
			return
		}
		if !current.AccountProgress.EmailVerified {
			response.FromError(w, apperr.ErrEmailNotVerified)
			return
		}

		user, err := h.service(r).CompleteProfile(r.Context(), id.UID, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Profile saved", user))
	}
}

// SendVerification returns the email verification link
// @Summary Send the verification email
// @Tags users
// @Produce json
// @Success 200 {object} response.Response{data=map[string]string}
// @Security BearerAuth
// @Router /auth/verify [post]
func (h *UserHandlers) SendVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inDemo(r) {
			response.FromError(w, errDemoSession)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		link, err := h.provider.SendVerification(r.Context(), userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		if link == "" {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Email already verified", nil))
			return
		}

		h.logger.Info("Verification link issued", slog.String("user_id", userID))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Verification link issued", map[string]string{"link": link}))
	}
}

const (
	maxVerificationWait  = time.Minute
	verificationInterval = 2 * time.Second
)

// lookup re-reads uid from the provider. With wait > 0 it long-polls until
// the email is verified or the wait runs out.
func (h *UserHandlers) lookup(ctx context.Context, uid string, wait time.Duration) (*identity.Identity, error) {
	if wait <= 0 {
		return h.provider.Lookup(ctx, uid)
	}

	waitCtx, cancel := context.WithTimeout(ctx, min(wait, maxVerificationWait))
	defer cancel()

	id, err := identity.AwaitEmailVerified(waitCtx, h.provider, uid, verificationInterval)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, apperr.ErrEmailNotVerified) && ctx.Err() == nil {
		return h.provider.Lookup(ctx, uid)
	}
	return nil, err
}

// VerificationStatus re-reads the verified flag from the identity provider
// @Summary Refresh email verification
// @Description Checks the identity provider and records a newly verified email on the profile. With wait set, holds the request until the email is verified or the wait ends.
// @Tags users
// @Produce json
// @Param wait query string false "Long-poll duration, e.g. 30s (capped at 1m)"
// @Success 200 {object} response.Response{data=users.User}
// @Security BearerAuth
// @Router /auth/verify/status [get]
func (h *UserHandlers) VerificationStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inDemo(r) {
			response.FromError(w, errDemoSession)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var wait time.Duration
		if v := r.URL.Query().Get("wait"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				response.FromError(w, apperr.InvalidArg("wait must be a duration such as 30s"))
				return
			}
			wait = d
		}

		id, err := h.lookup(r.Context(), userID, wait)
		if err != nil {
			response.FromError(w, err)
			return
		}

		user, err := h.feed.RegisterUser(r.Context(), *id)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Verification status fetched", user))
	}
}

// ConfirmVerification consumes a verification link
// @Summary Confirm an email address
// @Description Target of the links issued by the local identity provider.
// @Tags users
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} response.Response{data=users.User}
// @Failure 401 {object} response.Response "Invalid token"
// @Router /auth/verify/confirm [get]
func (h *UserHandlers) ConfirmVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmer, ok := h.provider.(verificationConfirmer)
		if !ok {
			response.FromError(w, apperr.NotFound("verification links are handled by the identity provider"))
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			response.FromError(w, apperr.InvalidArg("token is required"))
			return
		}

		id, err := confirmer.ConfirmVerification(r.Context(), token)
		if err != nil {
			response.FromError(w, err)
			return
		}

		user, err := h.feed.RegisterUser(r.Context(), *id)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Email verified", user))
	}
}

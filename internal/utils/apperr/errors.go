package apperr

var (
	// Domain errors raised by the feed actions.
	ErrChannelLimitReached   = FailedPrecondition("custom channel limit reached")
	ErrChannelNotFound       = NotFound("channel not found")
	ErrPostNotFound          = NotFound("post not found")
	ErrUserNotFound          = NotFound("user not found")
	ErrInviteNotFound        = NotFound("invite not found")
	ErrInviteNotPending      = FailedPrecondition("invite has already been answered")
	ErrNotChannelOwner       = Forbidden("only the channel owner can do this")
	ErrNotPostAuthor         = Forbidden("only the author can do this")
	ErrNotSubscribed         = Forbidden("not subscribed to this channel")
	ErrDailyChannelProtected = FailedPrecondition("daily channels cannot be deleted")
	ErrOwnerCannotLeave      = FailedPrecondition("owners cannot leave their own channel")
	ErrEmptyComment          = InvalidArg("comment text cannot be empty")
	ErrEmptyPost             = InvalidArg("a post needs text or media")
	ErrTooManyMedia          = InvalidArg("too many media files")
	ErrUnsupportedMedia      = InvalidArg("unsupported media type")
	ErrDocumentExists        = AlreadyExists("document already exists")
	ErrEmailTaken            = AlreadyExists("email is already registered")
	ErrInvalidCredentials    = Unauthorized("invalid email or password")
	ErrInvalidToken          = Unauthorized("invalid token")
	ErrEmailNotVerified      = FailedPrecondition("email address is not verified")
)

func ErrUploadFailed(cause error) error {
	return Wrap(CodeUnavailable, "media upload failed", cause)
}

func ErrStorage(cause error) error {
	return Wrap(CodeUnavailable, "document store request failed", cause)
}

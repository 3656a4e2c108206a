package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is echoed on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"

// Comment content and guest name bounds, in characters.
const (
	CommentContentMinLen = 2
	CommentContentMaxLen = 1000
	GuestNameMinLen      = 2
	GuestNameMaxLen      = 50
)

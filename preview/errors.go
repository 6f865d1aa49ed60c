package preview

import "errors"

var (
	// ErrPermissionDenied indicates the caller's capability set does
	// not allow a view-only session. Never retried automatically.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSessionExpired indicates the session reached its expiry and
	// was torn down. Terminal: a new session must be opened to retry.
	ErrSessionExpired = errors.New("preview session expired")
)

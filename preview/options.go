package preview

import "time"

const (
	// DefaultTTL is how long a session stays active before forced expiry.
	DefaultTTL = 5 * time.Minute
	// DefaultWarningThreshold is how long before expiry the warning fires.
	DefaultWarningThreshold = 30 * time.Second
	// DefaultMaxRenderBytes caps how much content reaches the surface.
	DefaultMaxRenderBytes = 1 << 20
)

// Option configures a preview session.
type Option func(*sessionOptions)

type sessionOptions struct {
	ttl            time.Duration
	warnThreshold  time.Duration
	maxRenderBytes int
	onWarning      func(remaining time.Duration)
}

// WithTTL sets the session lifetime.
func WithTTL(d time.Duration) Option {
	return func(o *sessionOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithWarningThreshold sets how long before expiry the warning
// callback fires.
func WithWarningThreshold(d time.Duration) Option {
	return func(o *sessionOptions) {
		if d > 0 {
			o.warnThreshold = d
		}
	}
}

// WithMaxRenderBytes caps the content length pushed to the surface;
// longer content is truncated with a notice.
func WithMaxRenderBytes(n int) Option {
	return func(o *sessionOptions) {
		if n > 0 {
			o.maxRenderBytes = n
		}
	}
}

// WithWarningFunc sets a non-blocking callback raised once when the
// session approaches expiry.
func WithWarningFunc(fn func(remaining time.Duration)) Option {
	return func(o *sessionOptions) {
		o.onWarning = fn
	}
}

package pipeline

// DefaultChunkSize is the read granularity for the streaming pass.
const DefaultChunkSize = 64 * 1024

// Option configures an encryption operation.
type Option func(*encryptOptions)

type encryptOptions struct {
	chunkSize int
	progress  func(pct int)
	tags      []string
}

// WithChunkSize sets the chunk size for the streaming read pass.
func WithChunkSize(n int) Option {
	return func(o *encryptOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithProgress sets a callback receiving a monotonically increasing
// percentage as plaintext is consumed. It is invoked from the calling
// goroutine.
func WithProgress(fn func(pct int)) Option {
	return func(o *encryptOptions) {
		o.progress = fn
	}
}

// WithTags appends tags to the envelope in addition to any carried by
// the metadata.
func WithTags(tags ...string) Option {
	return func(o *encryptOptions) {
		o.tags = append(o.tags, tags...)
	}
}

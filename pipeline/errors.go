package pipeline

import "errors"

// ErrEncryptionFailed indicates a platform crypto primitive failed.
// Fatal for the operation; retrying without new input will not help.
var ErrEncryptionFailed = errors.New("encryption failed")

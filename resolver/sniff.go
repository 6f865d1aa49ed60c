package resolver

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffContent checks decrypted bytes against the declared mime type
// by magic-byte detection. A cryptographically successful decrypt that
// fails this check is a wrong-framing false positive, so the caller
// must keep trying remaining framings instead of returning bad
// plaintext. Returns the resolved mime type on success.
func sniffContent(plainText []byte, declared string) (string, error) {
	detected := mimetype.Detect(plainText)

	if declared == "" || declared == "application/octet-stream" {
		return detected.String(), nil
	}

	// Walk the detected type and its ancestors: a docx is also a zip,
	// a markdown file is also plain text.
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(declared) {
			return declared, nil
		}
	}

	// Text formats detect as text/plain regardless of the specific
	// declared subtype.
	if strings.HasPrefix(declared, "text/") && strings.HasPrefix(detected.String(), "text/") {
		return declared, nil
	}

	return "", fmt.Errorf("declared %q but content detects as %q", declared, detected.String())
}

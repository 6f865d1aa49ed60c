package icrypto

import (
	"bytes"
	"testing"
)

func TestAAD(t *testing.T) {
	keyID := "key-123"
	ver := 1

	aad1 := AADDekWrap(keyID, ver)
	aad2 := AADDekWrap(keyID, ver)

	if !bytes.Equal(aad1, aad2) {
		t.Error("AADDekWrap should be deterministic")
	}

	aad3 := AADDekWrap("different-key", ver)
	if bytes.Equal(aad1, aad3) {
		t.Error("AADDekWrap should be different for different key IDs")
	}

	aadContent := AADContent(keyID, "application/pdf", ver)
	if len(aadContent) == 0 {
		t.Error("AADContent produced empty AAD")
	}

	// Different content types must produce different AAD
	aadContent2 := AADContent(keyID, "text/plain", ver)
	if bytes.Equal(aadContent, aadContent2) {
		t.Error("AADContent should be different for different content types")
	}

	// A wrap AAD and a content AAD for the same key must never collide
	if bytes.Equal(AADDekWrap(keyID, ver), AADContent(keyID, "", ver)) {
		t.Error("wrap and content AAD domains should be separated")
	}
}

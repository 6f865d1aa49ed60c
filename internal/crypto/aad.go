// Package icrypto builds the associated-data strings that bind
// ciphertexts to their envelope context.
package icrypto

import (
	"encoding/binary"
)

const (
	aadDEKWrap = "DEKWRAP"
	aadContent = "CONTENT"
)

// AADDekWrap binds a wrapped DEK to its key ID so a wrap cannot be
// replayed under a different envelope.
func AADDekWrap(keyID string, ver int) []byte {
	return buildAAD(aadDEKWrap, keyID, ver)
}

// AADContent binds document ciphertext to the key ID and declared
// content type.
func AADContent(keyID, mimeType string, ver int) []byte {
	return buildAAD(aadContent, keyID, mimeType, ver)
}

func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case []byte:
			res = appendLenPrefix(res, v)
		case uint64:
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, v)
			res = append(res, b...)
		case int:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v))
			res = append(res, b...)
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(data)))
	b = append(b, l...)
	b = append(b, data...)
	return b
}

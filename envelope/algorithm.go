package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Algorithm identifies the content encryption algorithm.
type Algorithm int

const (
	AES256GCM Algorithm = 0
)

// ErrUnknownAlgorithm is returned when an unrecognized algorithm is encountered.
var ErrUnknownAlgorithm = errors.New("unknown encryption algorithm")

func (a Algorithm) String() string {
	switch a {
	case AES256GCM:
		return "AES-256-GCM"
	default:
		return "Unknown"
	}
}

func (a *Algorithm) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unmarshaling algorithm: %w", err)
	}

	switch s {
	case "AES-256-GCM":
		*a = AES256GCM
	default:
		return ErrUnknownAlgorithm
	}

	return nil
}

func (a Algorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

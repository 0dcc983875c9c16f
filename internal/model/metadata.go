package model

import (
	"encoding/json"

	appErr "github.com/renardhq/renard/internal/pkg/errors"
)

const (
	metadataMaxKeys      = 32
	metadataMaxValueSize = 4096
)

// Metadata is the free-form attribute bag attached to an activity. It is
// validated once at the ingest boundary and opaque everywhere else.
type Metadata map[string]interface{}

// Validate restricts values to JSON scalars so that arbitrary nested blobs
// never reach the vector payload.
func (m Metadata) Validate() error {
	if len(m) > metadataMaxKeys {
		return appErr.ErrInvalid
	}
	for key, value := range m {
		if key == "" {
			return appErr.ErrInvalid
		}
		switch v := value.(type) {
		case nil, bool, float64, int, int64:
		case string:
			if len(v) > metadataMaxValueSize {
				return appErr.ErrInvalid
			}
		case json.Number:
		default:
			return appErr.ErrInvalid
		}
	}
	return nil
}

func (m Metadata) Encode() (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeMetadata(raw string) (Metadata, error) {
	if raw == "" {
		return Metadata{}, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

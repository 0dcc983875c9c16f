package model

import (
	"strings"
	"testing"

	appErr "github.com/renardhq/renard/internal/pkg/errors"
)

func TestMetadataValidateScalars(t *testing.T) {
	meta := Metadata{
		"source":  "cli",
		"exit":    float64(0),
		"cached":  true,
		"comment": nil,
	}
	if err := meta.Validate(); err != nil {
		t.Fatalf("scalar metadata rejected: %v", err)
	}
}

func TestMetadataValidateRejectsNested(t *testing.T) {
	meta := Metadata{"nested": map[string]interface{}{"a": 1}}
	if err := meta.Validate(); err != appErr.ErrInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestMetadataValidateRejectsOversizedValue(t *testing.T) {
	meta := Metadata{"blob": strings.Repeat("x", 5000)}
	if err := meta.Validate(); err != appErr.ErrInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestMetadataValidateRejectsTooManyKeys(t *testing.T) {
	meta := Metadata{}
	for i := 0; i < 40; i++ {
		meta[strings.Repeat("k", i+1)] = "v"
	}
	if err := meta.Validate(); err != appErr.ErrInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestMetadataEncodeDecodeRoundTrip(t *testing.T) {
	meta := Metadata{"source": "extension", "tab": float64(3)}
	raw, err := meta.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeMetadata(raw)
	if err != nil {
		t.Fatal(err)
	}
	if decoded["source"] != "extension" {
		t.Fatalf("unexpected decode: %v", decoded)
	}
	if _, err := DecodeMetadata(""); err != nil {
		t.Fatalf("empty metadata should decode: %v", err)
	}
}

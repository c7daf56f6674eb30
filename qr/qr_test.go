package qr

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

// TestEncodePNG verifies the output is a decodable PNG of the requested size
func TestEncodePNG(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		size int
	}{
		{"defaults", Options{}, DefaultSize},
		{"explicit size", Options{Size: 128}, 128},
		{"high level", Options{Level: LevelHigh}, DefaultSize},
		{"low level", Options{Level: LevelLow}, DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePNG("ethereum:0x3BEa30431539669E94B2E79149654586F7746A16@11155111", tt.opts)
			if err != nil {
				t.Fatalf("EncodePNG() error = %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not a valid PNG: %v", err)
			}
			if got := img.Bounds().Dx(); got != tt.size {
				t.Errorf("image width = %d, want %d", got, tt.size)
			}
		})
	}
}

// TestEncodePNGDeterministic verifies identical input produces identical bytes
func TestEncodePNGDeterministic(t *testing.T) {
	content := "ethereum:0x3BEa30431539669E94B2E79149654586F7746A16@11155111/transfer?address=0x3BEa30431539669E94B2E79149654586F7746A16&uint256=100500000"
	first, err := EncodePNG(content, Options{})
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	second, err := EncodePNG(content, Options{})
	if err != nil {
		t.Fatalf("EncodePNG() second call error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("EncodePNG() output differs across calls for identical input")
	}
}

// TestEncodePNGRejections verifies empty content, unknown levels, and oversized payloads fail
func TestEncodePNGRejections(t *testing.T) {
	if _, err := EncodePNG("", Options{}); err == nil {
		t.Error("empty content should be rejected")
	}
	if _, err := EncodePNG("x", Options{Level: "X"}); err == nil {
		t.Error("unknown level should be rejected")
	}

	// A payload beyond QR capacity cannot be encoded at any level.
	oversized := strings.Repeat("a", 8000)
	if _, err := EncodePNG(oversized, Options{Level: LevelHigh}); err == nil {
		t.Error("oversized content should be rejected")
	}
}

// TestDataURI verifies the data URI prefix and base64 body
func TestDataURI(t *testing.T) {
	uri, err := DataURI("ethereum:0x3BEa30431539669E94B2E79149654586F7746A16@1", Options{Size: 64})
	if err != nil {
		t.Fatalf("DataURI() error = %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("DataURI() = %q lacks data URI prefix", uri[:40])
	}
	if len(uri) <= len("data:image/png;base64,") {
		t.Error("DataURI() has empty body")
	}
}

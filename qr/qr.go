// Package qr renders payment URIs and payloads as scannable QR images. It is
// a thin wrapper around skip2/go-qrcode with no business logic: output is a
// pure function of the content and options.
package qr

import (
	"encoding/base64"
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// Level is the QR error-correction level. Longer payloads (the JSON and
// mobile deep-link formats) need lower redundancy to stay scannable at a
// given physical size, so the level is a parameter rather than a constant.
type Level string

const (
	LevelLow     Level = "L"
	LevelMedium  Level = "M"
	LevelQuarter Level = "Q"
	LevelHigh    Level = "H"
)

// recoveryLevel maps a Level to the library's constant. The second return
// value is false for unknown levels.
func (l Level) recoveryLevel() (qrcode.RecoveryLevel, bool) {
	switch l {
	case LevelLow:
		return qrcode.Low, true
	case LevelMedium, "":
		return qrcode.Medium, true
	case LevelQuarter:
		return qrcode.High, true
	case LevelHigh:
		return qrcode.Highest, true
	default:
		return qrcode.Medium, false
	}
}

// Options control QR rendering. The zero value produces a 256px medium-level
// black-on-white code with the standard quiet zone.
type Options struct {
	// Size is the output image width and height in pixels.
	Size int

	// DisableBorder removes the quiet-zone margin around the code.
	DisableBorder bool

	// DarkColor and LightColor override the module and background colors.
	DarkColor  color.Color
	LightColor color.Color

	// Level is the error-correction level, medium when empty.
	Level Level
}

// DefaultSize is used when Options.Size is zero.
const DefaultSize = 256

// EncodePNG renders content as a PNG image. Identical content and options
// produce byte-identical output. Content exceeding the QR capacity at the
// requested error-correction level returns an error; callers fall back to a
// shorter payment format.
func EncodePNG(content string, opts Options) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content cannot be empty")
	}
	level, ok := opts.Level.recoveryLevel()
	if !ok {
		return nil, fmt.Errorf("unknown error-correction level %q", opts.Level)
	}

	code, err := qrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	code.DisableBorder = opts.DisableBorder
	if opts.DarkColor != nil {
		code.ForegroundColor = opts.DarkColor
	}
	if opts.LightColor != nil {
		code.BackgroundColor = opts.LightColor
	}

	size := opts.Size
	if size == 0 {
		size = DefaultSize
	}

	png, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code as PNG: %w", err)
	}
	return png, nil
}

// DataURI renders content as a base64 PNG data URI consumable directly by an
// image element.
func DataURI(content string, opts Options) (string, error) {
	png, err := EncodePNG(content, opts)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

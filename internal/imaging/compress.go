// Package imaging shrinks uploaded photos and scans so they fit the upload limit.
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrTooLarge      = errors.New("image cannot be compressed under the size limit")
	ErrTooManyPixels = errors.New("image dimensions exceed the decode limit")
)

// MaxPixels bounds the canvas Compress will decode. A decoded RGBA canvas costs
// four bytes per pixel regardless of how small the encoded file is.
const MaxPixels = 40_000_000

const (
	startQuality = 85
	minQuality   = 40
	qualityStep  = 10
	shrinkFactor = 0.8
	minDimension = 320
)

// Compressible reports whether Compress understands the content type.
func Compressible(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

// Compress decodes an image, scales it so the longest side is at most maxDim
// and re-encodes it as JPEG, lowering quality and then dimensions until the
// result is at most maxBytes.
func Compress(data []byte, maxDim int, maxBytes int64) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ErrTooManyPixels
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	dim := maxDim
	for dim >= minDimension {
		scaled := fit(src, dim)
		for q := startQuality; q >= minQuality; q -= qualityStep {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: q}); err != nil {
				return nil, err
			}
			if int64(buf.Len()) <= maxBytes {
				return buf.Bytes(), nil
			}
		}
		dim = int(float64(dim) * shrinkFactor)
	}
	return nil, ErrTooLarge
}

// fit scales src onto a white canvas whose longest side is at most maxDim.
// Transparent regions become white since JPEG has no alpha.
func fit(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxDim || h > maxDim {
		if w >= h {
			h = h * maxDim / w
			w = maxDim
		} else {
			w = w * maxDim / h
			h = maxDim
		}
	}
	w, h = max(w, 1), max(h, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

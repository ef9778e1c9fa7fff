// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging shrinks images embedded in templates before they are
// persisted. Oversized images are downscaled to a maximum width and
// re-encoded; images that would not get smaller are left untouched.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxWidth  = 1600
	DefaultQuality   = 82
	DefaultMaxPixels = 40_000_000
	DefaultWorkers   = 4
)

// ErrTooLarge is returned for images whose decoded size exceeds the
// pixel limit.
var ErrTooLarge = errors.New("imaging: image exceeds pixel limit")

// ErrNotImage is returned for payloads that are not a base64 image data
// URI.
var ErrNotImage = errors.New("imaging: not an image data URI")

// Options tune the optimizer.
type Options struct {
	MaxWidth  int   // images wider than this are downscaled
	Quality   int   // JPEG quality 1-100
	MaxPixels int64 // decode guard against image bombs
	Workers   int   // concurrent images per template
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// Image is an encoded image and its MIME type.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// ParseDataURI splits a base64 image data URI into its MIME type and
// decoded bytes.
func ParseDataURI(src string) (string, []byte, error) {
	src = strings.TrimSpace(src)
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return "", nil, ErrNotImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotImage
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(mime, "image/") {
		return "", nil, ErrNotImage
	}
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return mime, data, nil
}

// DataURI encodes an image as a base64 data URI.
func DataURI(img Image) string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Shrink downscales and re-encodes an image. It returns ok=false when the
// result would not be smaller than the input, in which case the original
// should be kept. SVG and animated GIF payloads are never touched.
func Shrink(data []byte, contentType string, opts Options) (Image, bool, error) {
	opts = opts.withDefaults()

	switch contentType {
	case "image/svg+xml":
		return Image{}, false, nil
	case "image/gif":
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(g.Image) > 1 {
			return Image{}, false, nil
		}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, false, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > opts.MaxPixels {
		return Image{}, false, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, false, fmt.Errorf("decode image: %w", err)
	}

	img = fit(img, opts.MaxWidth)
	b := img.Bounds()

	var buf bytes.Buffer
	outType := "image/jpeg"
	if hasAlpha(img) {
		outType = "image/png"
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality})
	}
	if err != nil {
		return Image{}, false, fmt.Errorf("encode %s: %w", outType, err)
	}

	if buf.Len() >= len(data) {
		return Image{}, false, nil
	}
	return Image{
		Data:        buf.Bytes(),
		ContentType: outType,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, true, nil
}

// fit scales img down to maxWidth, preserving aspect ratio.
func fit(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	ratio := float64(maxWidth) / float64(b.Dx())
	h := max(1, int(float64(b.Dy())*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// hasAlpha reports whether any pixel is not fully opaque.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

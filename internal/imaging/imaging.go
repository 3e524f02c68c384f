// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects generated and uploaded images and produces JPEG
// thumbnails with golang.org/x/image. Thumbnails are only made for images
// wider than the thumbnail width; smaller images are never upscaled.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// ThumbWidth is the width of generated thumbnails.
	ThumbWidth = 512

	// thumbQuality is the JPEG quality for thumbnails.
	thumbQuality = 80

	// maxPixels caps decoded image size to guard against decompression bombs.
	maxPixels = 100_000_000
)

// Info describes an encoded image without decoding its pixels.
type Info struct {
	Width  int
	Height int
	Format string // "png", "jpeg", "gif", "webp"
}

// Inspect reads the image header.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("imaging: decode config: %w", err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Thumbnail is a resized JPEG copy of an image.
type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
}

// ContentType of every thumbnail.
const ContentType = "image/jpeg"

// MakeThumbnail scales data down to maxWidth preserving the aspect ratio.
// Returns (nil, nil) when the image is already maxWidth or narrower.
func MakeThumbnail(data []byte, maxWidth int) (*Thumbnail, error) {
	if maxWidth <= 0 {
		maxWidth = ThumbWidth
	}
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if int64(info.Width)*int64(info.Height) > maxPixels {
		return nil, fmt.Errorf("imaging: image too large: %dx%d exceeds %d pixels", info.Width, info.Height, maxPixels)
	}
	if info.Width <= maxWidth {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := img.Bounds()
	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}

	// CatmullRom gives the best quality of the x/image scalers.
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return &Thumbnail{Data: buf.Bytes(), Width: maxWidth, Height: height}, nil
}

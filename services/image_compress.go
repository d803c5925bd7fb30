package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	// registers the webp decoder with image.Decode
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/h2non/bimg"
	"github.com/rpupo63/fadarc-site-backend/errs"
)

const (
	MaxImageWidth  = 1200
	MaxImageHeight = 800
	JPEGQuality    = 85

	// CompressedMimeType is the content type of every CompressImage result.
	CompressedMimeType = "image/jpeg"
)

// CompressImage decodes a JPEG, PNG, GIF or WEBP image and re-encodes it as a progressive
// JPEG that fits inside MaxImageWidth x MaxImageHeight. Smaller images keep their size.
// EXIF orientation is applied and transparent areas are flattened onto white.
func CompressImage(r io.Reader) ([]byte, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.NewImageProcessingError(err)
	}

	fitted := imaging.Fit(src, MaxImageWidth, MaxImageHeight, imaging.Lanczos)

	bounds := fitted.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat := imaging.Overlay(canvas, fitted, image.Pt(0, 0), 1.0)

	// lossless handoff to libvips, which does the interlaced encode
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.PNG, imaging.PNGCompressionLevel(png.NoCompression)); err != nil {
		return nil, errs.NewImageProcessingError(err)
	}

	out, err := bimg.NewImage(buf.Bytes()).Process(bimg.Options{
		Type:          bimg.JPEG,
		Quality:       JPEGQuality,
		Interlace:     true,
		StripMetadata: true,
	})
	if err != nil {
		return nil, errs.NewImageProcessingError(err)
	}
	return out, nil
}

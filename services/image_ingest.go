package services

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"path"
	"time"

	"gorm.io/datatypes"

	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rs/zerolog/log"
)

// IncomingImage is one file received from a multipart upload.
type IncomingImage struct {
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
}

// ImageIngestor compresses an uploaded image, pushes it to the image host and records its metadata.
type ImageIngestor struct {
	host  ImageHost
	files database.UploadedFileRepository
	now   func() time.Time
}

func NewImageIngestor(host ImageHost, files database.UploadedFileRepository) *ImageIngestor {
	return &ImageIngestor{host: host, files: files, now: time.Now}
}

// Host returns the configured image host.
func (i *ImageIngestor) Host() ImageHost { return i.host }

// Ingest runs compress -> upload -> record. Nothing is retried.
// A failed metadata write leaves the image on the host; its URL is logged so it can be reconciled.
func (i *ImageIngestor) Ingest(ctx context.Context, in IncomingImage) (*models.UploadedFile, error) {
	logger := log.With().Str("component", "imageIngestor").Str("host", i.host.Name()).Logger()

	if missing := i.host.MissingConfig(); len(missing) > 0 {
		return nil, errs.NewConfigMissingError(i.host.Name(), missing...)
	}

	counter := &countingReader{r: in.Body}
	compressed, err := CompressImage(counter)
	if err != nil {
		logger.Warn().Err(err).Str("originalName", in.OriginalName).Msg("error compressing image")
		return nil, err
	}

	size := in.Size
	if size <= 0 {
		size = counter.n
	}

	fileName := StoredFileName(in.OriginalName, i.now())
	url, err := i.host.Upload(ctx, compressed, fileName)
	if err != nil {
		logger.Error().Err(err).Str("fileName", fileName).Msg("error uploading image")
		return nil, err
	}

	processing := models.ImageProcessing{
		Host:           i.host.Name(),
		Format:         "jpeg",
		Progressive:    true,
		CompressedSize: int64(len(compressed)),
	}
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(compressed)); err == nil {
		processing.Width, processing.Height = cfg.Width, cfg.Height
	} else {
		logger.Warn().Err(err).Str("fileName", fileName).Msg("error reading compressed image dimensions")
	}

	file := &models.UploadedFile{
		OriginalName: in.OriginalName,
		FileName:     fileName,
		FileSize:     size,
		MimeType:     in.MimeType,
		CloudURL:     &url,
		Processing:   datatypes.NewJSONType(processing),
	}
	if err := i.files.Create(ctx, file); err != nil {
		logger.Error().Err(err).Str("orphanUrl", url).Msg("image uploaded but metadata not recorded")
		return nil, errs.NewDatabaseError("record", "uploaded file", err)
	}

	logger.Info().
		Int64("fileId", file.ID).
		Int64("originalSize", size).
		Int("compressedSize", len(compressed)).
		Msg("image ingested")
	return file, nil
}

// StoredFileName builds "blog_<unixMillis>_<originalName>".
func StoredFileName(originalName string, at time.Time) string {
	return fmt.Sprintf("%s_%d_%s", models.UploadedFileNamePrefix, at.UnixMilli(), path.Base(originalName))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

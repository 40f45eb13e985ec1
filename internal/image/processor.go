package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultMaxFileSize = 5 * 1024 * 1024
	MaxDimension       = 4096
	ThumbnailSize      = 300
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidImage    = errors.New("invalid image")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type ProcessedImage struct {
	Original    []byte
	Thumbnail   []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

type Processor struct {
	maxSize int64
}

func NewProcessor(maxSize int64) *Processor {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Processor{maxSize: maxSize}
}

func (p *Processor) MaxSize() int64 { return p.maxSize }

// Process validates a jpeg/png upload and generates a square center-cropped
// thumbnail. EXIF orientation is applied to the thumbnail only.
func (p *Processor) Process(file io.Reader) (*ProcessedImage, error) {
	// read one byte past the limit so oversized uploads are detected without
	// buffering the whole body
	data, err := io.ReadAll(io.LimitReader(file, p.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > p.maxSize {
		return nil, fmt.Errorf("%w: maximum is %d bytes", ErrTooLarge, p.maxSize)
	}

	contentType := mimetype.Detect(data).String()
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w %q: only jpeg and png are allowed", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d exceed maximum %d", ErrInvalidImage, cfg.Width, cfg.Height, MaxDimension)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	thumb := imaging.Fill(img, ThumbnailSize, ThumbnailSize, imaging.Center, imaging.Lanczos)

	var thumbBuf bytes.Buffer
	if contentType == "image/png" {
		err = imaging.Encode(&thumbBuf, thumb, imaging.PNG)
	} else {
		err = imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(85))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &ProcessedImage{
		Original:    data,
		Thumbnail:   thumbBuf.Bytes(),
		ContentType: contentType,
		Extension:   ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

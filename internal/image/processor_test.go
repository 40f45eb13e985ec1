package image_test

import (
	"bytes"
	stdimage "image"
	"image/color"
	imgdraw "image/draw"
	"image/jpeg"
	"image/png"
	"testing"

	petimage "github.com/pawdesk/pawdesk/internal/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	imgdraw.Draw(img, img.Bounds(), &stdimage.Uniform{color.RGBA{R: 255, A: 255}}, stdimage.Point{}, imgdraw.Src)
	return img
}

func createTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), nil))
	return buf.Bytes()
}

func createTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

func TestProcess_AcceptsJPEG(t *testing.T) {
	p := petimage.NewProcessor(0)
	result, err := p.Process(bytes.NewReader(createTestJPEG(t, 500, 500)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Equal(t, ".jpg", result.Extension)
	assert.Equal(t, 500, result.Width)
	assert.Equal(t, 500, result.Height)
	assert.NotEmpty(t, result.Original)
	assert.NotEmpty(t, result.Thumbnail)
}

func TestProcess_AcceptsPNG(t *testing.T) {
	p := petimage.NewProcessor(0)
	result, err := p.Process(bytes.NewReader(createTestPNG(t, 64, 32)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, ".png", result.Extension)
}

func TestProcess_RejectsOversizedFile(t *testing.T) {
	data := createTestJPEG(t, 200, 200)
	p := petimage.NewProcessor(int64(len(data) - 1))
	_, err := p.Process(bytes.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, petimage.ErrTooLarge)
}

func TestProcess_RejectsNonImage(t *testing.T) {
	p := petimage.NewProcessor(0)
	_, err := p.Process(bytes.NewReader([]byte("%PDF-1.4 not a photo")))
	require.Error(t, err)
	assert.ErrorIs(t, err, petimage.ErrUnsupportedType)
}

func TestProcess_RejectsTooLargeDimensions(t *testing.T) {
	p := petimage.NewProcessor(50 * 1024 * 1024)
	_, err := p.Process(bytes.NewReader(createTestJPEG(t, 4097, 10)))
	require.Error(t, err)
	assert.ErrorIs(t, err, petimage.ErrInvalidImage)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestThumbnailSize(t *testing.T) {
	p := petimage.NewProcessor(0)
	result, err := p.Process(bytes.NewReader(createTestJPEG(t, 800, 400)))
	require.NoError(t, err)

	img, _, err := stdimage.Decode(bytes.NewReader(result.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

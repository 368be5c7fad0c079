package sample

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/nao1215/stegscan/internal/model"
	"golang.org/x/crypto/sha3"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultMaxPixels is the largest image accepted for decoding.
// Larger images are rejected before their pixel data is allocated.
const DefaultMaxPixels = 89_478_485

// options holds decode settings.
type options struct {
	maxPixels int
}

// Option configures decoding.
type Option func(*options)

// WithMaxPixels sets the largest accepted width*height.
// Values <= 0 keep the default.
func WithMaxPixels(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open reads the file at path and returns its identity and content.
// A file that cannot be read is reported as model.ErrDecode since the
// analysis cannot proceed without it.
func Open(path string) (model.FileInfo, []byte, error) {
	info := model.FileInfo{
		Name: filepath.Base(path),
		Path: path,
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return info, nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}

	info.SizeBytes = int64(len(data))
	info.SHA3 = Fingerprint(data)
	return info, data, nil
}

// Fingerprint returns the hex encoded SHA3-256 digest of data.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Decode parses image bytes into a normalized sample named name.
func Decode(name string, data []byte, opts ...Option) (*model.ImageSample, error) {
	o := newOptions(opts)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", model.ErrDecode, cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > o.maxPixels {
		return nil, fmt.Errorf("%w: image has %d pixels, limit is %d",
			model.ErrDecode, cfg.Width*cfg.Height, o.maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}

	b := img.Bounds()
	pix := make([]uint8, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, _ := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B)
		}
	}

	s, err := model.NewImageSample(name, b.Dx(), b.Dy(), pix)
	if err != nil {
		return nil, err
	}

	mode, channels := modeOf(img)
	return s.WithMetadata(strings.ToUpper(format), mode, channels, Metadata(data)), nil
}

// Load opens and decodes the file at path.
// The returned FileInfo is populated whenever the file could be read,
// even if decoding fails.
func Load(path string, opts ...Option) (model.FileInfo, *model.ImageSample, error) {
	info, data, err := Open(path)
	if err != nil {
		return info, nil, err
	}
	s, err := Decode(info.Name, data, opts...)
	if err != nil {
		return info, nil, err
	}
	return info, s, nil
}

// modeOf returns the color mode name and channel count of the source image.
func modeOf(img image.Image) (string, int) {
	switch img.(type) {
	case *image.Gray:
		return "L", 1
	case *image.Gray16:
		return "I;16", 1
	case *image.Paletted:
		return "P", 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		return "RGBA", 4
	case *image.CMYK:
		return "CMYK", 4
	case *image.Alpha, *image.Alpha16:
		return "A", 1
	default:
		return "RGB", 3
	}
}

// Metadata extracts EXIF tags from raw file content.
// The first occurrence of a tag name wins. Missing EXIF yields an empty map.
func Metadata(data []byte) (metadata map[string]string) {
	metadata = make(map[string]string)
	defer func() {
		// go-exif panics on some malformed IFDs.
		if r := recover(); r != nil {
			metadata = make(map[string]string)
		}
	}()

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return metadata
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return metadata
	}

	for _, entry := range entries {
		if entry.TagName == "" {
			continue
		}
		if _, exists := metadata[entry.TagName]; exists {
			continue
		}
		metadata[entry.TagName] = entry.Formatted
	}
	return metadata
}

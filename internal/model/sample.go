package model

import (
	"fmt"
	"maps"
)

// FileInfo identifies the analyzed file. It is captured before decoding so
// that a report can identify the file even when decoding fails.
type FileInfo struct {
	// Name is the base name of the file.
	Name string `json:"filename"`

	// Path is the path the file was read from.
	Path string `json:"-"`

	// SizeBytes is the file size.
	SizeBytes int64 `json:"size_bytes"`

	// SHA3 is the hex encoded SHA3-256 digest of the file content.
	SHA3 string `json:"sha3_256"`
}

// ImageSample is a decoded image normalized to an interleaved 8-bit RGB grid.
// It is immutable after construction.
type ImageSample struct {
	// Name is the base name of the source file, used to name artifacts.
	Name string

	// Format is the upper-cased decoder name, e.g. "PNG".
	Format string

	// Mode is the color mode of the source image before normalization, e.g. "RGBA" or "L".
	Mode string

	// Width and Height are the pixel dimensions.
	Width  int
	Height int

	// SourceChannels is the number of channels in the source color model.
	SourceChannels int

	// Metadata is the flat mapping of embedded metadata (EXIF tag name to value).
	Metadata map[string]string

	pix []uint8
}

// NewImageSample creates a sample from interleaved RGB pixel data.
// pix must hold exactly width*height*3 values; it is copied.
func NewImageSample(name string, width, height int, pix []uint8) (*ImageSample, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("%w: expected %d components, got %d", ErrDecode, width*height*3, len(pix))
	}
	owned := make([]uint8, len(pix))
	copy(owned, pix)
	return &ImageSample{
		Name:           name,
		Mode:           "RGB",
		Width:          width,
		Height:         height,
		SourceChannels: 3,
		Metadata:       make(map[string]string),
		pix:            owned,
	}, nil
}

// At returns the value of one channel at pixel (x, y).
func (s *ImageSample) At(x, y int, c Channel) uint8 {
	return s.pix[(y*s.Width+x)*3+int(c)]
}

// Components returns the number of RGB components (width*height*3).
func (s *ImageSample) Components() int {
	return len(s.pix)
}

// EachComponent calls fn for every RGB component in row-major order.
func (s *ImageSample) EachComponent(fn func(v uint8)) {
	for _, v := range s.pix {
		fn(v)
	}
}

// WithMetadata returns a copy of the sample carrying the given format,
// mode, channel count and metadata. Pixel data is shared since it is never
// written after construction.
func (s *ImageSample) WithMetadata(format, mode string, channels int, metadata map[string]string) *ImageSample {
	out := *s
	out.Format = format
	out.Mode = mode
	out.SourceChannels = channels
	out.Metadata = maps.Clone(metadata)
	if out.Metadata == nil {
		out.Metadata = make(map[string]string)
	}
	return &out
}

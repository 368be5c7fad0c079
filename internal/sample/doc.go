// Package sample loads image files into model.ImageSample values.
//
// Decoding supports PNG, JPEG and GIF from the standard library plus BMP,
// TIFF and WebP from golang.org/x/image. Every decoded image is normalized
// to an interleaved 8-bit RGB grid: alpha is dropped, colors are
// non-premultiplied, and grayscale is replicated to three channels so the
// LSB statistics stay calibrated regardless of the source color model.
//
// EXIF metadata, when present, is flattened into a tag name to value mapping
// with github.com/dsoprea/go-exif/v3. Missing or malformed EXIF never fails
// a load.
package sample

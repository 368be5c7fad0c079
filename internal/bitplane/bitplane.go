package bitplane

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/stegscan/internal/model"
)

// DefaultBits are the bit positions rendered when none are configured.
var DefaultBits = []int{0, 1}

// DefaultURLPrefix is prepended to artifact file names to form references.
const DefaultURLPrefix = "/static/bitplanes"

// Decomposer renders bit planes into an artifact directory.
type Decomposer struct {
	// dir is the directory planes are written to.
	dir string

	// bits are the bit positions rendered per channel.
	bits []int

	// channels are the channels decomposed, in order.
	channels []model.Channel

	// urlPrefix is prepended to file names in BitPlane.Path.
	urlPrefix string

	// logger is used for debug output.
	logger *slog.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithBits sets the bit positions to render.
func WithBits(bits ...int) Option {
	return func(d *Decomposer) {
		if len(bits) > 0 {
			d.bits = append([]int(nil), bits...)
		}
	}
}

// WithChannels sets the channels to decompose.
func WithChannels(channels ...model.Channel) Option {
	return func(d *Decomposer) {
		if len(channels) > 0 {
			d.channels = append([]model.Channel(nil), channels...)
		}
	}
}

// WithURLPrefix sets the prefix used to build artifact references.
// An empty prefix makes references equal to the bare file name.
func WithURLPrefix(prefix string) Option {
	return func(d *Decomposer) {
		d.urlPrefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decomposer) {
		d.logger = logger
	}
}

// NewDecomposer creates a Decomposer writing into dir.
func NewDecomposer(dir string, opts ...Option) *Decomposer {
	d := &Decomposer{
		dir:       dir,
		bits:      append([]int(nil), DefaultBits...),
		channels:  append([]model.Channel(nil), model.AllChannels...),
		urlPrefix: DefaultURLPrefix,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Dir returns the artifact directory.
func (d *Decomposer) Dir() string {
	return d.dir
}

// Decompose renders every configured (channel, bit) plane of s.
// Planes are returned channel-major, bit-minor.
func (d *Decomposer) Decompose(ctx context.Context, s *model.ImageSample) model.BitPlaneSet {
	if s == nil {
		return errorSet(fmt.Errorf("%w: no sample to decompose", model.ErrArtifactIO))
	}
	for _, bit := range d.bits {
		if bit < 0 || bit > 7 {
			return errorSet(fmt.Errorf("%w: bit %d out of range 0-7", model.ErrArtifactIO, bit))
		}
	}

	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return errorSet(fmt.Errorf("%w: failed to create %s: %w", model.ErrArtifactIO, d.dir, err))
	}

	planes := make([]model.BitPlane, 0, len(d.channels)*len(d.bits))
	written := make([]string, 0, cap(planes))

	for _, ch := range d.channels {
		for _, bit := range d.bits {
			if err := ctx.Err(); err != nil {
				d.rollback(written)
				return errorSet(fmt.Errorf("%w: %w", model.ErrArtifactIO, err))
			}

			name := FileName(s.Name, ch, bit)
			target := filepath.Join(d.dir, name)
			if err := writePlane(target, Render(s, ch, bit)); err != nil {
				d.rollback(written)
				return errorSet(err)
			}
			written = append(written, target)

			planes = append(planes, model.BitPlane{
				Name:    Label(ch, bit),
				Channel: ch,
				Bit:     bit,
				Path:    d.reference(name),
			})
		}
	}

	d.logger.Debug("bit planes written",
		"sample", s.Name,
		"planes", len(planes),
		"dir", d.dir,
	)

	return model.BitPlaneSet{Status: model.StatusSuccess, Planes: planes}
}

// reference builds the addressable path for an artifact file name.
func (d *Decomposer) reference(name string) string {
	prefix := strings.TrimRight(d.urlPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// rollback removes the planes written during a failed run.
func (d *Decomposer) rollback(written []string) {
	for _, path := range written {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("failed to remove partial bit plane", "path", path, "error", err)
		}
	}
}

// writePlane writes img to target through a temporary file in the same directory.
func writePlane(target string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".bitplane-*.png")
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrArtifactIO, err)
	}
	tmpName := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: failed to encode %s: %w", model.ErrArtifactIO, filepath.Base(target), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: %w", model.ErrArtifactIO, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: %w", model.ErrArtifactIO, err)
	}
	return nil
}

func errorSet(err error) model.BitPlaneSet {
	return model.BitPlaneSet{
		Status: model.StatusError,
		Planes: []model.BitPlane{},
		Error:  err.Error(),
	}
}

// Extract returns plane[y*width+x] = (pixel[y][x][channel] >> bit) & 1.
func Extract(s *model.ImageSample, ch model.Channel, bit int) []uint8 {
	plane := make([]uint8, s.Width*s.Height)
	for y := range s.Height {
		for x := range s.Width {
			plane[y*s.Width+x] = (s.At(x, y, ch) >> uint(bit)) & 1
		}
	}
	return plane
}

// Render returns the plane as a grayscale image with set bits at full intensity.
func Render(s *model.ImageSample, ch model.Channel, bit int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for i, v := range Extract(s, ch, bit) {
		img.Pix[i] = v * 255
	}
	return img
}

// FileName returns the artifact file name for a plane of the named sample.
func FileName(sampleName string, ch model.Channel, bit int) string {
	base := strings.TrimSuffix(filepath.Base(sampleName), filepath.Ext(sampleName))
	return fmt.Sprintf("%s_%s_Bit%d.png", base, ch, bit)
}

// Label returns the display name of a plane.
func Label(ch model.Channel, bit int) string {
	if bit == 0 {
		return fmt.Sprintf("%s Channel - Bit 0 (LSB)", ch)
	}
	return fmt.Sprintf("%s Channel - Bit %d (Bit %d)", ch, bit, bit)
}

package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/command"
	"github.com/sirupsen/logrus"

	_ "golang.org/x/image/webp" // masters may be stored as webp
)

const defaultJPEGQuality = 90

type Options struct {
	JPEGQuality int
	// MaxDimension caps width and height of any operation; 0 disables the cap.
	MaxDimension uint
	// AutoOrient applies the EXIF orientation of JPEG masters on decode.
	AutoOrient bool
}

// ImageProcessor renders a command chain against master image bytes. It does
// no disk or network I/O.
type ImageProcessor struct {
	opts Options
}

func NewImageProcessor(opts Options) *ImageProcessor {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = defaultJPEGQuality
	}
	return &ImageProcessor{opts: opts}
}

// Render decodes master once, applies the chain left to right and encodes the
// result in the format implied by extension. Identical inputs give identical
// bytes.
func (p *ImageProcessor) Render(master []byte, chain *command.Chain, extension string) ([]byte, error) {
	format, err := imaging.FormatFromExtension(extension)
	if err != nil {
		return nil, fmt.Errorf("%w: extension %q", entity.ErrEncode, extension)
	}

	// the whole chain is checked before the master is decoded
	if err := p.Check(chain); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(master), imaging.AutoOrientation(p.opts.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}

	for i, op := range chain.Operations() {
		img, err = Apply(img, op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(p.opts.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}

	logrus.WithFields(logrus.Fields{
		"operations": chain.Len(),
		"format":     format.String(),
		"bytes":      buf.Len(),
	}).Debug("Rendition encoded")

	return buf.Bytes(), nil
}

// Check validates every operation of chain and the configured size cap.
func (p *ImageProcessor) Check(chain *command.Chain) error {
	if err := chain.Validate(); err != nil {
		return err
	}
	for i, op := range chain.Operations() {
		if err := p.checkLimits(op); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func (p *ImageProcessor) checkLimits(op entity.Operation) error {
	if p.opts.MaxDimension == 0 {
		return nil
	}
	if op.Width > p.opts.MaxDimension || op.Height > p.opts.MaxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d", entity.ErrInvalidDimension, op.Width, op.Height, p.opts.MaxDimension)
	}
	return nil
}

// Apply runs a single operation. Only the three known kinds are dispatched.
func Apply(img image.Image, op entity.Operation) (image.Image, error) {
	if op.Width == 0 || op.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", entity.ErrInvalidDimension, op.Width, op.Height)
	}
	filter, err := resampleFilter(op.Filter)
	if err != nil {
		return nil, err
	}

	w, h := int(op.Width), int(op.Height)
	switch op.Kind {
	case entity.Thumbnail:
		return thumbnail(img, w, h, filter), nil
	case entity.Resize:
		return resize(img, w, h, filter), nil
	case entity.Fit:
		return fit(img, w, h, filter), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownOperation, op.Kind)
	}
}

// thumbnail shrinks img to fit inside w x h keeping the aspect ratio. It never
// upscales.
func thumbnail(img image.Image, w, h int, filter imaging.ResampleFilter) image.Image {
	return imaging.Fit(img, w, h, filter)
}

// resize scales to exactly w x h, ignoring the aspect ratio.
func resize(img image.Image, w, h int, filter imaging.ResampleFilter) image.Image {
	return imaging.Resize(img, w, h, filter)
}

// fit scales and center-crops to exactly w x h.
func fit(img image.Image, w, h int, filter imaging.ResampleFilter) image.Image {
	return imaging.Fill(img, w, h, imaging.Center, filter)
}

func resampleFilter(mode entity.FilterMode) (imaging.ResampleFilter, error) {
	switch mode {
	case entity.Nearest:
		return imaging.NearestNeighbor, nil
	case entity.Bilinear:
		return imaging.Linear, nil
	case entity.Bicubic:
		return imaging.CatmullRom, nil
	case entity.Antialias:
		return imaging.Lanczos, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("%w: %s", entity.ErrUnsupportedFilter, mode)
}

package face

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	// Roster photos may be stored as WebP.
	_ "golang.org/x/image/webp"

	"github.com/Veraticus/ponto/internal/model"
)

// Strategy names the resolution at which faces were found.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyHalf
	StrategyFull
	StrategyUpsampled
)

func (s Strategy) String() string {
	switch s {
	case StrategyHalf:
		return "half"
	case StrategyFull:
		return "full"
	case StrategyUpsampled:
		return "upsampled"
	default:
		return "none"
	}
}

// Detection is the result of running the fallback chain on one image.
type Detection struct {
	Embeddings []model.Embedding
	Strategy   Strategy
}

// EmbedderConfig tunes the fallback chain.
type EmbedderConfig struct {
	// Upsample is the number of 2x enlargements applied in the last fallback.
	Upsample int
	// MaxDimension caps the longest side of an upsampled image.
	MaxDimension int
}

// DefaultEmbedderConfig returns the standard fallback settings.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{Upsample: 2, MaxDimension: 4096}
}

// Embedder extracts embeddings, trying half resolution, then full resolution, then an upsampled copy.
type Embedder struct {
	detector Detector
	config   EmbedderConfig
}

// NewEmbedder creates an embedder around a detector.
func NewEmbedder(detector Detector, config EmbedderConfig) *Embedder {
	return &Embedder{detector: detector, config: config}
}

// EmbedFile decodes the image at path, honoring EXIF orientation, and runs the fallback chain.
func (e *Embedder) EmbedFile(path string) (Detection, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Detection{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return e.Embed(img)
}

// Embed runs the fallback chain on a decoded image and stops at the first stage that finds a face.
func (e *Embedder) Embed(img image.Image) (Detection, error) {
	bounds := img.Bounds()

	if bounds.Dx() >= 2 && bounds.Dy() >= 2 {
		half := imaging.Resize(img, bounds.Dx()/2, bounds.Dy()/2, imaging.NearestNeighbor)
		if found, err := e.detector.Detect(half); err != nil {
			return Detection{}, err
		} else if len(found) > 0 {
			return Detection{Embeddings: found, Strategy: StrategyHalf}, nil
		}
	}

	found, err := e.detector.Detect(img)
	if err != nil {
		return Detection{}, err
	}
	if len(found) > 0 {
		return Detection{Embeddings: found, Strategy: StrategyFull}, nil
	}

	up, ok := e.upsample(img)
	if !ok {
		return Detection{Strategy: StrategyNone}, nil
	}
	found, err = e.detector.Detect(up)
	if err != nil {
		return Detection{}, err
	}
	if len(found) > 0 {
		return Detection{Embeddings: found, Strategy: StrategyUpsampled}, nil
	}

	slog.Debug("No face found at any resolution", "width", bounds.Dx(), "height", bounds.Dy())
	return Detection{Strategy: StrategyNone}, nil
}

// upsample doubles the image up to config.Upsample times without exceeding MaxDimension.
// It reports false when no enlargement was possible.
func (e *Embedder) upsample(img image.Image) (image.Image, bool) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	factor := 1
	for i := 0; i < e.config.Upsample; i++ {
		if e.config.MaxDimension > 0 && max(w, h)*factor*2 > e.config.MaxDimension {
			break
		}
		factor *= 2
	}
	if factor == 1 {
		return nil, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, w*factor, h*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, true
}

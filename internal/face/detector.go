// Package face identifies employees in photos by comparing face embeddings against a roster.
package face

import (
	"image"

	"github.com/Veraticus/ponto/internal/model"
)

// Detector finds faces in an image and returns one embedding per face found.
// An image without faces yields an empty slice and a nil error.
type Detector interface {
	Detect(img image.Image) ([]model.Embedding, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(img image.Image) ([]model.Embedding, error)

// Detect calls f(img).
func (f DetectorFunc) Detect(img image.Image) ([]model.Embedding, error) {
	return f(img)
}

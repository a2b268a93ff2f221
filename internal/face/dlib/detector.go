// Package dlib provides a face detector backed by dlib's ResNet face recognition model.
//
// The model files (shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat,
// mmod_human_face_detector.dat) must be present in the models directory.
package dlib

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	goface "github.com/Kagami/go-face"

	"github.com/Veraticus/ponto/internal/model"
)

// Detector wraps a go-face recognizer. The underlying recognizer is not safe
// for concurrent use, so calls are serialized.
type Detector struct {
	rec *goface.Recognizer
	mu  sync.Mutex
}

// New loads the dlib models from modelsDir.
func New(modelsDir string) (*Detector, error) {
	rec, err := goface.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load face models from %s: %w", modelsDir, err)
	}
	return &Detector{rec: rec}, nil
}

// Detect returns a 128-dimensional descriptor for every face in img.
func (d *Detector) Detect(img image.Image) ([]model.Embedding, error) {
	// The recognizer only accepts encoded JPEG data.
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	d.mu.Lock()
	faces, err := d.rec.Recognize(buf.Bytes())
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	out := make([]model.Embedding, len(faces))
	for i, f := range faces {
		emb := make(model.Embedding, len(f.Descriptor))
		copy(emb, f.Descriptor[:])
		out[i] = emb
	}
	return out, nil
}

// Close releases the native resources held by the recognizer.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.Close()
}

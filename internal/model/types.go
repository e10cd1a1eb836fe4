package model

import (
	"context"
	"image"

	"github.com/Brownie44l1/fer-gallery/internal/labels"
)

type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// InputSize is the number of float32 values one sample occupies.
func (m Metadata) InputSize() int {
	if len(m.InputShape) == 0 {
		return 0
	}
	size := 1
	for _, dim := range m.InputShape {
		size *= int(dim)
	}
	return size
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}

// Predictor turns a batch of face images into per-class score vectors,
// one vector per image and in the same order.
type Predictor interface {
	PredictImages(ctx context.Context, images []image.Image) ([]labels.Vector, error)
}

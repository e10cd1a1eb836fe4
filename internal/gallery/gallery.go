package gallery

import (
	"context"
	"fmt"
	"image"

	"github.com/Brownie44l1/fer-gallery/internal/dataset"
	"github.com/Brownie44l1/fer-gallery/internal/labels"
	"github.com/Brownie44l1/fer-gallery/internal/model"
	"github.com/Brownie44l1/fer-gallery/internal/render"
)

// Result is one rendered page of predictions.
type Result struct {
	Figure *render.Figure
	Titles []string
	Colors []labels.Color
}

// Titles runs the samples through the predictor and resolves one title per
// sample, in sample order.
func Titles(ctx context.Context, p model.Predictor, samples []dataset.Sample) ([]string, []labels.Color, error) {
	preds, err := p.PredictImages(ctx, dataset.Images(samples))
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}
	return labels.ResolveBatchTitles(dataset.Labels(samples), preds)
}

// Page renders up to nine samples starting at start on a 3×3 grid.
func Page(ctx context.Context, p model.Predictor, samples []dataset.Sample, start int) (*Result, error) {
	if start < 0 || start >= len(samples) {
		return nil, fmt.Errorf("start %d out of range for %d samples", start, len(samples))
	}
	end := start + render.GridSize
	if end > len(samples) {
		end = len(samples)
	}
	window := samples[start:end]

	titles, colors, err := Titles(ctx, p, window)
	if err != nil {
		return nil, err
	}

	fig := render.NewFigure()
	if err := render.DisplayPredictions(fig, dataset.Images(window), titles, colors); err != nil {
		return nil, err
	}
	return &Result{Figure: fig, Titles: titles, Colors: colors}, nil
}

// Overview renders the nine sample window at start using class indices for
// both labels and predictions, colouring misclassified captions red.
func Overview(ctx context.Context, p model.Predictor, samples []dataset.Sample, start int) (*render.Figure, error) {
	if start < 0 || start+render.GridSize > len(samples) {
		return nil, fmt.Errorf("need %d samples from %d, have %d", render.GridSize, start, len(samples))
	}
	window := samples[start : start+render.GridSize]
	preds, err := p.PredictImages(ctx, dataset.Images(window))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(preds) != len(window) {
		return nil, fmt.Errorf("%w: %d samples, %d predictions", labels.ErrBatchMismatch, len(window), len(preds))
	}

	// DisplayNine indexes by absolute position, so pad the slices in front.
	images := make([]image.Image, start+len(window))
	labelIdx := make([]int, start+len(window))
	predIdx := make([]int, start+len(window))
	colors := make([]labels.Color, 0, len(window))
	for i, s := range window {
		pi, err := labels.Class(preds[i])
		if err != nil {
			return nil, &labels.SampleError{Index: start + i, Err: err}
		}
		images[start+i] = s.Image
		labelIdx[start+i] = s.Class
		predIdx[start+i] = pi
		c := labels.Neutral
		if pi != s.Class {
			c = labels.Alert
		}
		colors = append(colors, c)
	}

	fig := render.NewFigure()
	if err := render.DisplayNine(fig, images, labelIdx, predIdx, start, colors); err != nil {
		return nil, err
	}
	return fig, nil
}

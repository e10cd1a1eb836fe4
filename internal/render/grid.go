package render

import (
	"fmt"
	"image"

	"github.com/Brownie44l1/fer-gallery/internal/labels"
)

// GridSize is the number of panels in the 3×3 overview.
const GridSize = 9

// DisplayNine draws images[start:start+9] on a 3×3 grid, each titled with
// its actual class, predicted class and dataset index. colors may be nil.
func DisplayNine(f *Figure, images []image.Image, labelIdx, predIdx []int, start int, colors []labels.Color) error {
	end := start + GridSize
	if start < 0 || end > len(images) || end > len(labelIdx) || end > len(predIdx) {
		return fmt.Errorf("window [%d, %d) out of range: %d images, %d labels, %d predictions",
			start, end, len(images), len(labelIdx), len(predIdx))
	}
	if colors != nil && len(colors) < GridSize {
		return fmt.Errorf("need %d title colors, got %d", GridSize, len(colors))
	}

	for i := 0; i < GridSize; i++ {
		idx := start + i
		title, err := labels.Caption(labelIdx[idx], predIdx[idx], idx)
		if err != nil {
			return fmt.Errorf("image %d: %w", idx, err)
		}

		opts := PanelOptions{}
		if colors != nil {
			opts.TitleColor = colors[i].Ink()
		}
		if err := f.DisplayOne(images[idx], title, Subplot{Rows: 3, Cols: 3, Index: i + 1}, opts); err != nil {
			return err
		}
	}
	return nil
}

// DisplayPredictions draws up to nine images on a 3×3 grid with resolved
// titles. Misclassified images also get a border.
func DisplayPredictions(f *Figure, images []image.Image, titles []string, colors []labels.Color) error {
	if len(images) != len(titles) || len(images) != len(colors) {
		return fmt.Errorf("%d images, %d titles, %d colors", len(images), len(titles), len(colors))
	}
	if len(images) == 0 || len(images) > GridSize {
		return fmt.Errorf("can display 1 to %d images, got %d", GridSize, len(images))
	}

	for i, img := range images {
		opts := PanelOptions{
			TitleColor: colors[i].Ink(),
			Border:     colors[i] == labels.Alert,
		}
		if err := f.DisplayOne(img, titles[i], Subplot{Rows: 3, Cols: 3, Index: i + 1}, opts); err != nil {
			return err
		}
	}
	return nil
}

package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Brownie44l1/fer-gallery/internal/labels"
)

// Sample is one labelled face image.
type Sample struct {
	Path  string
	Class int
	Label labels.Vector
	Image image.Image
}

type Options struct {
	// Limit caps the number of samples loaded; 0 means no limit.
	Limit int
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Load reads a dataset laid out as <root>/<ClassName>/<image>. Samples come
// back ordered by class index, then file name.
func Load(root string, opts Options, logger *zap.Logger) ([]Sample, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset dir: %w", err)
	}

	type file struct {
		class int
		name  string
		path  string
	}
	var files []file
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		class, ok := labels.ClassIndex(e.Name())
		if !ok {
			logger.Warn("Skipping unknown class directory", zap.String("dir", e.Name()))
			continue
		}

		dir := filepath.Join(root, e.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read class dir: %w", err)
		}
		for _, c := range children {
			if c.IsDir() || !imageExts[strings.ToLower(filepath.Ext(c.Name()))] {
				continue
			}
			files = append(files, file{class: class, name: c.Name(), path: filepath.Join(dir, c.Name())})
		}
	}

	// happy/ and Happy/ both map to one class, so order across directories
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.class != b.class {
			return a.class < b.class
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.path < b.path
	})

	if opts.Limit > 0 && len(files) > opts.Limit {
		logger.Debug("Sample limit reached", zap.Int("limit", opts.Limit))
		files = files[:opts.Limit]
	}

	samples := make([]Sample, 0, len(files))
	for _, f := range files {
		img, err := decode(f.path)
		if err != nil {
			return nil, err
		}
		label, err := labels.OneHot(f.class)
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{Path: f.path, Class: f.class, Label: label, Image: img})
	}

	logger.Info("Dataset loaded", zap.String("root", root), zap.Int("samples", len(samples)))
	return samples, nil
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Images returns the images of samples in order.
func Images(samples []Sample) []image.Image {
	out := make([]image.Image, len(samples))
	for i, s := range samples {
		out[i] = s.Image
	}
	return out
}

// Labels returns the one-hot labels of samples in order.
func Labels(samples []Sample) []labels.Vector {
	out := make([]labels.Vector, len(samples))
	for i, s := range samples {
		out[i] = s.Label
	}
	return out
}

package gallery

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/Brownie44l1/fer-gallery/internal/dataset"
	"github.com/Brownie44l1/fer-gallery/internal/labels"
)

// stubPredictor predicts class pred[i] for the i-th image it has seen.
type stubPredictor struct {
	pred  []int
	seen  int
	calls int
}

func (s *stubPredictor) PredictImages(ctx context.Context, images []image.Image) ([]labels.Vector, error) {
	s.calls++
	out := make([]labels.Vector, len(images))
	for i := range images {
		v := make(labels.Vector, labels.NumClasses)
		v[s.pred[s.seen]] = 0.9
		s.seen++
		out[i] = v
	}
	return out, nil
}

func samples(t *testing.T, classes ...int) []dataset.Sample {
	t.Helper()
	out := make([]dataset.Sample, len(classes))
	for i, c := range classes {
		label, err := labels.OneHot(c)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = dataset.Sample{Class: c, Label: label, Image: image.NewGray(image.Rect(0, 0, 8, 8))}
	}
	return out
}

func TestTitles(t *testing.T) {
	p := &stubPredictor{pred: []int{1, 1}}
	titles, colors, err := Titles(context.Background(), p, samples(t, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if titles[0] != "Happy [correct]" || titles[1] != "Happy [incorrect, should be Neutral]" {
		t.Errorf("titles = %q", titles)
	}
	if colors[0] != labels.Neutral || colors[1] != labels.Alert {
		t.Errorf("colors = %v", colors)
	}
}

func TestPage(t *testing.T) {
	s := samples(t, 0, 1, 2, 3, 4, 5, 6, 7, 0, 1, 2)
	p := &stubPredictor{pred: []int{3, 3}}

	res, err := Page(context.Background(), p, s, 9)
	if err != nil {
		t.Fatal(err)
	}
	if res.Figure.Len() != 2 || len(res.Titles) != 2 {
		t.Fatalf("page has %d panels, %d titles", res.Figure.Len(), len(res.Titles))
	}
	if res.Titles[1] != "Surprise [incorrect, should be Sad]" {
		t.Errorf("title = %q", res.Titles[1])
	}

	if _, err := Page(context.Background(), p, s, len(s)); err == nil {
		t.Error("expected error for start past the end")
	}
}

func TestOverview(t *testing.T) {
	s := samples(t, 0, 0, 1, 2, 3, 4, 5, 6, 7, 0)
	p := &stubPredictor{pred: []int{0, 1, 2, 3, 4, 5, 6, 7, 1}}

	fig, err := Overview(context.Background(), p, s, 1)
	if err != nil {
		t.Fatal(err)
	}
	title, _ := fig.Title(9)
	if title != "Actual=Neutral \n Pred=Happy \n Index = 9" {
		t.Errorf("last caption = %q", title)
	}

	if _, err := Overview(context.Background(), p, s, 2); err == nil {
		t.Error("expected error for short window")
	}
}

type failingPredictor struct{}

var errModel = errors.New("model down")

func (failingPredictor) PredictImages(context.Context, []image.Image) ([]labels.Vector, error) {
	return nil, errModel
}

func TestTitlesPredictorError(t *testing.T) {
	_, _, err := Titles(context.Background(), failingPredictor{}, samples(t, 0))
	if !errors.Is(err, errModel) {
		t.Errorf("error = %v; expected errModel", err)
	}
}

// fixedPredictor returns the same vector for every image.
type fixedPredictor struct {
	v labels.Vector
}

func (f fixedPredictor) PredictImages(ctx context.Context, images []image.Image) ([]labels.Vector, error) {
	out := make([]labels.Vector, len(images))
	for i := range out {
		out[i] = f.v
	}
	return out, nil
}

func TestOverviewRejectsShortPredictions(t *testing.T) {
	s := samples(t, 0, 1, 2, 3, 4, 5, 6, 7, 0)
	p := fixedPredictor{v: labels.Vector{0.1, 0.7, 0.1, 0.05, 0.02, 0.01, 0.01}}

	_, err := Overview(context.Background(), p, s, 0)
	if !errors.Is(err, labels.ErrClassOutOfRange) {
		t.Fatalf("error = %v; expected ErrClassOutOfRange", err)
	}
	var se *labels.SampleError
	if !errors.As(err, &se) || se.Index != 0 {
		t.Errorf("error = %v; expected *SampleError for sample 0", err)
	}
}

func TestOverviewColors(t *testing.T) {
	s := samples(t, 0, 1, 2, 3, 4, 5, 6, 7, 0)
	p := &stubPredictor{pred: []int{0, 1, 2, 3, 4, 5, 6, 7, 1}}

	fig, err := Overview(context.Background(), p, s, 0)
	if err != nil {
		t.Fatal(err)
	}
	for panel := 1; panel <= 9; panel++ {
		expected := labels.Neutral.Ink()
		if panel == 9 {
			expected = labels.Alert.Ink()
		}
		c, ok := fig.TitleColor(panel)
		if !ok || c != expected {
			t.Errorf("panel %d title color = %v; expected %v", panel, c, expected)
		}
	}
}

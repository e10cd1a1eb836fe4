package labels

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var classes = [...]string{"Neutral", "Happy", "Sad", "Surprise", "Fear", "Disgust", "Anger", "Contempt"}

// NumClasses is the length every label and prediction vector must have.
const NumClasses = len(classes)

var (
	ErrEmptyVector     = errors.New("empty vector")
	ErrNaN             = errors.New("vector contains NaN")
	ErrClassOutOfRange = errors.New("class index out of range")
)

// Vector holds one score per class, aligned with the class table.
type Vector []float64

// ClassName returns the emotion name for class index i.
func ClassName(i int) (string, error) {
	if i < 0 || i >= NumClasses {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrClassOutOfRange, i, NumClasses)
	}
	return classes[i], nil
}

// ClassNames returns a copy of the class table.
func ClassNames() []string {
	out := make([]string, NumClasses)
	copy(out, classes[:])
	return out
}

// ClassIndex looks a class up by name, ignoring case.
func ClassIndex(name string) (int, bool) {
	for i, c := range classes {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return -1, false
}

// ArgMax returns the index of the largest entry. Ties go to the lowest index.
// Empty vectors and vectors holding NaN are rejected instead of defaulting to 0.
func ArgMax(v Vector) (int, error) {
	if len(v) == 0 {
		return 0, ErrEmptyVector
	}
	if floats.HasNaN(v) {
		return 0, ErrNaN
	}
	return floats.MaxIdx(v), nil
}

// OneHot builds the ground-truth vector for a class index.
func OneHot(class int) (Vector, error) {
	if _, err := ClassName(class); err != nil {
		return nil, err
	}
	v := make(Vector, NumClasses)
	v[class] = 1
	return v, nil
}

// Color tells the renderer how to paint a title.
type Color int

const (
	Neutral Color = iota
	Alert
)

func (c Color) String() string {
	if c == Alert {
		return "red"
	}
	return "black"
}

// Ink is the text color used to draw the title.
func (c Color) Ink() color.Color {
	if c == Alert {
		return color.RGBA{R: 255, A: 255}
	}
	return color.Black
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

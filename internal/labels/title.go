package labels

import (
	"errors"
	"fmt"
)

var ErrBatchMismatch = errors.New("labels and predictions differ in length")

// SampleError reports which sample of a batch could not be resolved.
type SampleError struct {
	Index int
	Err   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Index, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// Class maps a vector to its class. Vectors that are not aligned with the
// class table are rejected even when their argmax would land inside it.
func Class(v Vector) (int, error) {
	if len(v) != 0 && len(v) != NumClasses {
		return 0, fmt.Errorf("%w: vector has %d entries, table has %d", ErrClassOutOfRange, len(v), NumClasses)
	}
	idx, err := ArgMax(v)
	if err != nil {
		return 0, err
	}
	if _, err := ClassName(idx); err != nil {
		return 0, err
	}
	return idx, nil
}

// ResolveTitle compares the one-hot label with the prediction and returns
// the display title together with its color.
func ResolveTitle(label, prediction Vector) (string, Color, error) {
	trueIdx, err := Class(label)
	if err != nil {
		return "", Neutral, fmt.Errorf("label: %w", err)
	}
	predIdx, err := Class(prediction)
	if err != nil {
		return "", Neutral, fmt.Errorf("prediction: %w", err)
	}

	if trueIdx == predIdx {
		return classes[predIdx] + " [correct]", Neutral, nil
	}
	return fmt.Sprintf("%s [incorrect, should be %s]", classes[predIdx], classes[trueIdx]), Alert, nil
}

// ResolveBatchTitles resolves every label/prediction pair in order. The first
// sample that fails stops the batch and is returned as a *SampleError.
func ResolveBatchTitles(labels, predictions []Vector) ([]string, []Color, error) {
	if len(labels) != len(predictions) {
		return nil, nil, fmt.Errorf("%w: %d labels, %d predictions", ErrBatchMismatch, len(labels), len(predictions))
	}

	titles := make([]string, 0, len(labels))
	colors := make([]Color, 0, len(labels))
	for i := range labels {
		title, c, err := ResolveTitle(labels[i], predictions[i])
		if err != nil {
			return nil, nil, &SampleError{Index: i, Err: err}
		}
		titles = append(titles, title)
		colors = append(colors, c)
	}
	return titles, colors, nil
}

// Caption is the three line title used by the nine image overview.
func Caption(actual, pred, index int) (string, error) {
	a, err := ClassName(actual)
	if err != nil {
		return "", err
	}
	p, err := ClassName(pred)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Actual=%s \n Pred=%s \n Index = %d", a, p, index), nil
}

package labels

import (
	"errors"
	"math"
	"testing"
)

func TestArgMax(t *testing.T) {
	testCases := []struct {
		name     string
		v        Vector
		expected int
		err      error
	}{
		{"one-hot", Vector{0, 0, 1, 0, 0, 0, 0, 0}, 2, nil},
		{"tie goes to lowest index", Vector{0.5, 0.5, 0, 0, 0, 0, 0, 0}, 0, nil},
		{"later tie", Vector{0, 0.1, 0.4, 0.4, 0.1, 0, 0, 0}, 2, nil},
		{"negative scores", Vector{-3, -1, -2}, 1, nil},
		{"all -Inf", Vector{math.Inf(-1), math.Inf(-1)}, 0, nil},
		{"empty", Vector{}, 0, ErrEmptyVector},
		{"all NaN", Vector{math.NaN(), math.NaN()}, 0, ErrNaN},
		{"one NaN", Vector{0.2, math.NaN(), 0.1}, 0, ErrNaN},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := ArgMax(tc.v)
			if !errors.Is(err, tc.err) {
				t.Fatalf("ArgMax(%v) error = %v; expected %v", tc.v, err, tc.err)
			}
			if err == nil && actual != tc.expected {
				t.Errorf("ArgMax(%v) = %d; expected %d", tc.v, actual, tc.expected)
			}
		})
	}
}

func TestClassName(t *testing.T) {
	name, err := ClassName(7)
	if err != nil || name != "Contempt" {
		t.Errorf("ClassName(7) = %q, %v; expected Contempt", name, err)
	}
	for _, i := range []int{-1, NumClasses} {
		if _, err := ClassName(i); !errors.Is(err, ErrClassOutOfRange) {
			t.Errorf("ClassName(%d) error = %v; expected ErrClassOutOfRange", i, err)
		}
	}
}

func TestClassNamesIsCopy(t *testing.T) {
	names := ClassNames()
	names[0] = "Changed"
	if name, _ := ClassName(0); name != "Neutral" {
		t.Errorf("class table was mutated through ClassNames: %q", name)
	}
}

func TestClassIndex(t *testing.T) {
	if i, ok := ClassIndex("surprise"); !ok || i != 3 {
		t.Errorf("ClassIndex(surprise) = %d, %v; expected 3, true", i, ok)
	}
	if _, ok := ClassIndex("Bored"); ok {
		t.Error("ClassIndex(Bored) should not match")
	}
}

func TestOneHot(t *testing.T) {
	v, err := OneHot(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != NumClasses {
		t.Fatalf("len(OneHot(4)) = %d; expected %d", len(v), NumClasses)
	}
	idx, _ := ArgMax(v)
	if idx != 4 {
		t.Errorf("ArgMax(OneHot(4)) = %d", idx)
	}
	if _, err := OneHot(NumClasses); !errors.Is(err, ErrClassOutOfRange) {
		t.Errorf("OneHot(%d) error = %v", NumClasses, err)
	}
}

func TestColor(t *testing.T) {
	if Neutral.String() != "black" || Alert.String() != "red" {
		t.Errorf("unexpected color names %q %q", Neutral, Alert)
	}
	r, g, b, _ := Alert.Ink().RGBA()
	if r != 0xffff || g != 0 || b != 0 {
		t.Errorf("Alert ink = %v %v %v; expected red", r, g, b)
	}
	text, _ := Alert.MarshalText()
	if string(text) != "red" {
		t.Errorf("Alert.MarshalText() = %q", text)
	}
}

package dataset

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "happy", "b.png"))
	writePNG(t, filepath.Join(root, "happy", "a.png"))
	writePNG(t, filepath.Join(root, "Neutral", "z.png"))
	writePNG(t, filepath.Join(root, "bored", "x.png"))
	if err := os.WriteFile(filepath.Join(root, "happy", "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	samples, err := Load(root, Options{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	expected := []struct {
		name  string
		class int
	}{
		{"z.png", 0},
		{"a.png", 1},
		{"b.png", 1},
	}
	if len(samples) != len(expected) {
		t.Fatalf("got %d samples; expected %d", len(samples), len(expected))
	}
	for i, e := range expected {
		s := samples[i]
		if filepath.Base(s.Path) != e.name || s.Class != e.class {
			t.Errorf("sample %d = %s/%d; expected %s/%d", i, filepath.Base(s.Path), s.Class, e.name, e.class)
		}
		if s.Label[e.class] != 1 {
			t.Errorf("sample %d label %v is not one-hot for %d", i, s.Label, e.class)
		}
	}

	if n := len(Images(samples)); n != 3 {
		t.Errorf("Images() returned %d", n)
	}
	if n := len(Labels(samples)); n != 3 {
		t.Errorf("Labels() returned %d", n)
	}
}

func TestLoadLimit(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1.png", "2.png", "3.png"} {
		writePNG(t, filepath.Join(root, "sad", name))
	}

	samples, err := Load(root, Options{Limit: 2}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Errorf("got %d samples; expected 2", len(samples))
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing"), Options{}, zap.NewNop()); err == nil {
		t.Error("expected error for missing root")
	}

	root := t.TempDir()
	bad := filepath.Join(root, "fear", "broken.png")
	if err := os.MkdirAll(filepath.Dir(bad), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root, Options{}, zap.NewNop()); err == nil {
		t.Error("expected error for undecodable image")
	}
}

func TestLoadMergesClassDirectories(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "happy", "b.png"))
	writePNG(t, filepath.Join(root, "happy", "d.png"))
	writePNG(t, filepath.Join(root, "Happy", "a.png"))
	writePNG(t, filepath.Join(root, "Happy", "c.png"))

	samples, err := Load(root, Options{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 4 {
		t.Fatalf("got %d samples; expected 4", len(samples))
	}

	for i, expected := range []string{"a.png", "b.png", "c.png", "d.png"} {
		if name := filepath.Base(samples[i].Path); name != expected || samples[i].Class != 1 {
			t.Errorf("sample %d = %s/%d; expected %s/1", i, name, samples[i].Class, expected)
		}
	}
}

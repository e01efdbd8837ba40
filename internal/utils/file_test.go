package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewExtSet(t *testing.T) {
	s := NewExtSet("jpg", ".PNG", " .Tif ", "", ".")

	for _, name := range []string{"a.jpg", "b.JPG", "c.png", "d.tif", "e.TIF"} {
		if !s.Match(name) {
			t.Errorf("expected %q to match", name)
		}
	}
	for _, name := range []string{"a.jpeg", "b.txt", "noext", "c.tiff"} {
		if s.Match(name) {
			t.Errorf("expected %q not to match", name)
		}
	}

	want := []string{".jpg", ".png", ".tif"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"IDRiD_01.jpg":      "IDRiD_01",
		"/a/b/IDRiD_01.txt": "IDRiD_01",
		"archive.tar.gz":    "archive.tar",
		"noext":             "noext",
		"y.JPG":             "y",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	got := GenerateOutputFilename("/data/img_01.jpg", "out", "", "_overlay", "PNG")
	want := filepath.Join("out", "img_01_overlay.png")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = GenerateOutputFilename("/data/img_01.jpg", "out", "p_", "", "")
	want = filepath.Join("out", "p_img_01.jpg")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.JPG", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ListFiles(dir, NewExtSet(".jpg"))
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	want := []string{"a.JPG", "b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListFiles = %v, want %v", got, want)
	}

	if _, err := ListFiles(filepath.Join(dir, "missing"), NewExtSet(".jpg")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDirAndFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !DirExists(dir) || DirExists(file) || DirExists(filepath.Join(dir, "nope")) {
		t.Error("DirExists returned unexpected result")
	}
	if !FileExists(file) || FileExists(dir) || FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists returned unexpected result")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a/b:c*d. "); got != "a_b_c_d" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KB",
		5 * 1 << 20: "5.0 MB",
	}
	for in, want := range tests {
		if got := FormatFileSize(in); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}

package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKeyedPool(t *testing.T) {
	created := map[int]int{}
	pool := NewKeyedPool(func(size int) []float64 {
		created[size]++
		return make([]float64, size)
	})

	a := pool.Get(8)
	if len(a) != 8 {
		t.Fatalf("Expected a slice of 8, got %d", len(a))
	}
	pool.Put(8, a)

	if b := pool.Get(16); len(b) != 16 {
		t.Errorf("Pool returned a value for the wrong key: len %d", len(b))
	}
	if created[16] != 1 {
		t.Errorf("Expected one allocation for key 16, got %d", created[16])
	}
}

func TestImagePool(t *testing.T) {
	rect := image.Rect(0, 0, 7, 5)
	img := GetImage(rect)
	if img.Bounds() != rect {
		t.Fatalf("Expected bounds %v, got %v", rect, img.Bounds())
	}
	PutImage(img)

	if other := GetImage(image.Rect(0, 0, 3, 3)); other.Bounds().Dx() != 3 {
		t.Errorf("Expected a 3x3 image, got %v", other.Bounds())
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Errorf("Expected at least one worker, got %d", n)
	}
}

func TestIsInput(t *testing.T) {
	tests := map[string]bool{
		"scan.TIF":  true,
		"book.pdf":  true,
		"page.webp": true,
		"notes.txt": false,
		"archive":   false,
	}
	for name, want := range tests {
		if got := IsInput(name); got != want {
			t.Errorf("IsInput(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFindLatestInput(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		filepath.Join(dir, "old.png"),
		filepath.Join(dir, "book.pdf"),
		filepath.Join(dir, "newest.txt"),
	}
	for i, f := range files {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}

	latest, err := FindLatestInput(dir)
	if err != nil {
		t.Fatalf("FindLatestInput failed: %v", err)
	}
	if latest != files[1] {
		t.Errorf("Expected %s, got %s", files[1], latest)
	}

	if _, err := FindLatestInput(t.TempDir()); err == nil {
		t.Error("Expected error for a directory without scans")
	}
}

func TestMemoryUsage(t *testing.T) {
	stats, err := MemoryUsage()
	if err != nil {
		t.Skipf("memory stats unavailable: %v", err)
	}
	if stats.TotalMB == 0 || stats.String() == "" {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

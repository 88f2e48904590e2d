package cache

import (
	"path/filepath"
	"testing"
)

func TestDirsHonourHomeOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv("MEMORIA_HOME", root)

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", ConfigDir, filepath.Join(root, "config")},
		{"data", DataDir, filepath.Join(root, "data")},
		{"cache", CacheDir, filepath.Join(root, "cache")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("%s dir error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("%s dir = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestVectorsGetPut(t *testing.T) {
	v, err := NewVectors("ruri", 2)
	if err != nil {
		t.Fatalf("NewVectors() error = %v", err)
	}

	v.Put("a", []float32{1})
	v.Put("b", []float32{2})
	v.Put("c", []float32{3})

	if v.Len() != 2 {
		t.Errorf("Len() = %d, want 2", v.Len())
	}
	if _, ok := v.Get("a"); ok {
		t.Error("Get(a) should have been evicted")
	}

	got, ok := v.Get("c")
	if !ok || got[0] != 3 {
		t.Fatalf("Get(c) = %v, %v", got, ok)
	}
	got[0] = 99
	if again, _ := v.Get("c"); again[0] != 3 {
		t.Error("Get() returned a shared slice")
	}

	v.Purge()
	if v.Len() != 0 {
		t.Errorf("Len() after Purge = %d", v.Len())
	}
}

func TestNilVectorsIsDisabled(t *testing.T) {
	v, err := NewVectors("m", 0)
	if err != nil {
		t.Fatalf("NewVectors(0) error = %v", err)
	}
	v.Put("x", []float32{1})
	if _, ok := v.Get("x"); ok {
		t.Error("disabled cache returned a hit")
	}
	if v.Len() != 0 {
		t.Error("disabled cache has entries")
	}
}

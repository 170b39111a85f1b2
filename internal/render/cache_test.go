package render

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheKey(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "take.csv")
	if err := os.WriteFile(input, []byte("0, 0, Header, 1, 2, 480\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	k1, err := c.Key(input, Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	k2, err := c.Key(input, Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Error("same input and options produced different keys")
	}

	k3, _ := c.Key(input, Options{Seed: 2})
	if k3 == k1 {
		t.Error("changed options kept the same key")
	}

	if err := os.WriteFile(input, []byte("2, 0, Note_on_c, 9, 36, 90\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	k4, _ := c.Key(input, Options{Seed: 1})
	if k4 == k1 {
		t.Error("changed input content kept the same key")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	rendered := filepath.Join(dir, "render.wav")
	if err := os.WriteFile(rendered, []byte("RIFF-data"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.wav")
	hit, err := c.Get("abc123", out)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("unexpected cache hit")
	}

	if err := c.Put("abc123", rendered, "input.mid"); err != nil {
		t.Fatal(err)
	}
	hit, err = c.Get("abc123", out)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected cache hit after Put")
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "RIFF-data" {
		t.Errorf("restored content = %q", data)
	}
}

package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Cache stores finished renders keyed by input content and render
// options, so repeated renders of the same MIDI file are free.
type Cache struct {
	dir string
}

// entryMeta sits next to each cached wav for inspection and pruning.
type entryMeta struct {
	Key       string    `json:"key"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCache opens (or creates) the render cache under root, typically the
// user cache directory.
func NewCache(root string) (*Cache, error) {
	dir := filepath.Join(root, "renders")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key hashes the input file's content together with the options that
// affect the output. Any option change invalidates the entry.
func (c *Cache) Key(inputPath string, opts any) (string, error) {
	hasher := sha256.New()
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return "", fmt.Errorf("hash input: %w", err)
		}
		if _, err := io.Copy(hasher, f); err != nil {
			f.Close()
			return "", fmt.Errorf("hash input: %w", err)
		}
		f.Close()
	}
	encoded, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("hash options: %w", err)
	}
	hasher.Write(encoded)
	return hex.EncodeToString(hasher.Sum(nil))[:16], nil
}

func (c *Cache) wavPath(key string) string {
	return filepath.Join(c.dir, key+".wav")
}

// Get copies a cached render to outputPath if one exists.
func (c *Cache) Get(key, outputPath string) (bool, error) {
	cached := c.wavPath(key)
	if _, err := os.Stat(cached); err != nil {
		return false, nil
	}
	if err := copyFile(cached, outputPath); err != nil {
		return false, fmt.Errorf("restore cached render: %w", err)
	}
	return true, nil
}

// Put stores a finished render under key.
func (c *Cache) Put(key, renderedPath, sourcePath string) error {
	if err := copyFile(renderedPath, c.wavPath(key)); err != nil {
		return fmt.Errorf("store render: %w", err)
	}
	meta := entryMeta{Key: key, Source: sourcePath, CreatedAt: time.Now()}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, key+".json"), data, 0644); err != nil {
		return fmt.Errorf("write cache meta: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package piano

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dygy/sc-sampler/internal/engine"
	serr "github.com/dygy/sc-sampler/internal/errors"
)

// LoadBuffers loads every wav file in the sample pack, sorted by
// filename so buffer order matches the lookup table's sample indices.
func LoadBuffers(ctx context.Context, tl engine.Timeline, samplesDir string) ([]engine.Buffer, error) {
	paths, err := filepath.Glob(filepath.Join(samplesDir, "*.wav"))
	if err != nil {
		return nil, fmt.Errorf("scan sample pack: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no wav files in %s: %w", samplesDir, serr.ErrSampleMissing)
	}
	sort.Strings(paths)
	return tl.LoadBuffers(ctx, paths)
}

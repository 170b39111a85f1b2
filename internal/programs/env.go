package programs

import (
	"context"
	"log/slog"

	"github.com/dygy/sc-sampler/internal/catalog"
	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/kit"
	"github.com/dygy/sc-sampler/internal/piano"
)

// LoadEnv builds the catalogs against a timeline and loads every buffer a
// program might touch. Programs mix drum and piano material freely, so
// both sample sets load up front.
func LoadEnv(ctx context.Context, tl engine.Timeline, samplesDir, pianoDir string, quiet bool, logger *slog.Logger) (*Env, error) {
	cat, err := catalog.New(samplesDir, engine.ChannelCount)
	if err != nil {
		return nil, err
	}
	k := kit.New(cat, tl)
	if err := k.Load(ctx); err != nil {
		return nil, err
	}
	buffers, err := piano.LoadBuffers(ctx, tl, pianoDir)
	if err != nil {
		return nil, err
	}
	return &Env{
		Timeline:     tl,
		Kit:          k,
		Lookup:       piano.BuildLookup(quiet),
		PianoBuffers: buffers,
		Log:          logger,
	}, nil
}

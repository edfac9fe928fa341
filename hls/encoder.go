package hls

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"vodforge/engine"
	"vodforge/ladder"
	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"

	"golang.org/x/sync/errgroup"
)

const (
	SegmentSeconds = 10
	PlaylistName   = "index.m3u8"
	SegmentPattern = "segment_%03d.ts"
)

// Encoder renders every planned tier into its own HLS rendition.
type Encoder struct {
	Engine engine.Engine
	// Workers bounds how many tiers are encoded at once. Values below 1 mean 1,
	// i.e. strictly sequential.
	Workers int
}

// EncodeAll encodes the plan below outputRoot and returns one variant per
// tier in plan order. The first failing tier aborts the whole call and no
// variants are returned.
func (e *Encoder) EncodeAll(ctx context.Context, sourcePath, outputRoot string, plan []ladder.PlannedTier) ([]models.VariantPlaylist, error) {
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	variants := make([]models.VariantPlaylist, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, tier := range plan {
		g.Go(func() error {
			v, err := e.encodeTier(gctx, sourcePath, outputRoot, tier)
			if err != nil {
				return err
			}
			variants[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return variants, nil
}

func (e *Encoder) encodeTier(ctx context.Context, sourcePath, outputRoot string, tier ladder.PlannedTier) (models.VariantPlaylist, error) {
	// a sibling tier already failed
	if err := ctx.Err(); err != nil {
		return models.VariantPlaylist{}, err
	}

	dir := filepath.Join(outputRoot, tier.Dir())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.VariantPlaylist{}, fmt.Errorf("create tier dir %s: %w", dir, err)
	}

	logger.Infof("Encoding %s (%s, %s, crf %d)", tier.Name, tier.Resolution(), tier.Bitrate, tier.CRF)
	timer := metrics.NewTimer(metrics.TierEncodeDuration.WithLabelValues(tier.Name))
	err := e.Engine.EncodeSegmented(ctx, sourcePath,
		engine.ScaleSpec{Width: tier.Width, Height: tier.Height},
		engine.SegmentOptions{
			OutputDir:      dir,
			PlaylistName:   PlaylistName,
			SegmentPattern: SegmentPattern,
			SegmentSeconds: SegmentSeconds,
			VideoBitrate:   tier.Bitrate,
			CRF:            tier.CRF,
		})
	timer.ObserveDuration()
	if err != nil {
		return models.VariantPlaylist{}, fmt.Errorf("encode %s: %w", tier.Name, err)
	}

	logger.Infof("Encoded %s into %s", tier.Name, dir)
	return models.VariantPlaylist{
		Width:        tier.Width,
		Height:       tier.Height,
		Bitrate:      tier.Bitrate,
		Resolution:   tier.Resolution(),
		PlaylistPath: path.Join(tier.Dir(), PlaylistName),
	}, nil
}

// Package timeline merges approved scenes, brand overlays and sound design
// into one immutable, frame-indexed RenderSpec.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/sound"
)

// SceneSource is the terminal gate state of a scene plus an optional human override.
type SceneSource struct {
	State       generation.StateSnapshot
	OverrideURL string
}

// Input is everything the composer merges.
type Input struct {
	Table       *frames.Table
	Scenes      []script.Scene
	AspectRatio string
	Sources     map[string]SceneSource
	Brand       *brand.Plan
	Sound       *sound.Plan
	MusicURL    string
	// SFXLibrary maps cue asset keys to raw asset references.
	SFXLibrary map[string]string
}

// Composer builds RenderSpecs.
type Composer struct {
	resolver asset.Resolver
	logger   *zap.Logger
}

// NewComposer creates a composer.
func NewComposer(resolver asset.Resolver, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{resolver: resolver, logger: logger.Named("timeline")}
}

// Compose builds the RenderSpec. It fails fast when a scene has no renderable
// asset and never emits a partial timeline.
func (c *Composer) Compose(ctx context.Context, in Input) (*RenderSpec, error) {
	if in.Table == nil {
		return nil, violation(invFrameUnit, "no frame table")
	}
	if len(in.Scenes) != in.Table.Len() {
		return nil, violation(invContiguous, "%d scenes but %d spans", len(in.Scenes), in.Table.Len())
	}
	if err := checkReady(in); err != nil {
		return nil, err
	}

	spec := &RenderSpec{
		fps:         in.Table.Clock().FPS(),
		totalFrames: in.Table.TotalFrames(),
		aspectRatio: in.AspectRatio,
	}
	if spec.aspectRatio == "" {
		spec.aspectRatio = script.DefaultAspectRatio
	}
	if in.Brand != nil {
		for _, d := range in.Brand.Dropped {
			spec.dropped = append(spec.dropped, Dropped{Kind: string(d.Kind), SceneID: d.SceneID, RawURL: d.RawURL, Reason: d.Reason})
		}
	}

	if err := c.sceneTrack(ctx, spec, in); err != nil {
		return nil, err
	}
	if err := c.overlayTrack(spec, in); err != nil {
		return nil, err
	}
	if err := c.audioTracks(ctx, spec, in); err != nil {
		return nil, err
	}

	if err := validate(spec); err != nil {
		return nil, err
	}
	c.logger.Info("timeline composed",
		zap.Int("fps", spec.fps),
		zap.Int("total_frames", spec.totalFrames),
		zap.Int("overlays", len(spec.overlayTrack)),
		zap.Int("sfx", len(spec.sfx)),
		zap.Int("dropped", len(spec.dropped)),
	)
	return spec, nil
}

// checkReady requires every scene to be approved, or overridden after it
// escalated or was cancelled.
func checkReady(in Input) error {
	var first *SceneNotReadyError
	notReady := 0
	for _, s := range in.Scenes {
		src, ok := in.Sources[s.ID]
		status := generation.StatusPending
		if ok {
			status = src.State.Status
		}
		ready := status == generation.StatusApproved ||
			(Overridable(status) && src.OverrideURL != "")
		if ready {
			continue
		}
		notReady++
		if first == nil {
			first = &SceneNotReadyError{SceneID: s.ID, Index: s.Index, Status: status}
		}
	}
	if first != nil {
		first.NotReady = notReady
		return first
	}
	return nil
}

// Overridable reports whether a scene in status may take a human-supplied asset.
func Overridable(status generation.Status) bool {
	return status == generation.StatusEscalated || status == generation.StatusCancelled
}

func (c *Composer) sceneTrack(ctx context.Context, spec *RenderSpec, in Input) error {
	for i, s := range in.Scenes {
		span := in.Table.At(i)
		if span.SceneID != s.ID {
			return violation(invContiguous, "span %d is scene %s, expected %s", i, span.SceneID, s.ID)
		}
		src := in.Sources[s.ID]
		raw, overridden := src.OverrideURL, true
		if src.State.Status == generation.StatusApproved {
			raw, _ = src.State.AssetURL()
			overridden = false
		}
		public, err := c.resolve(ctx, raw)
		if err != nil {
			return fmt.Errorf("%w: scene %d: %w", ErrEssentialAsset, s.Index, err)
		}
		spec.sceneTrack = append(spec.sceneTrack, SceneEntry{
			SceneID:        s.ID,
			Index:          s.Index,
			Type:           s.Type,
			MediaKind:      s.Kind(),
			AssetURL:       public,
			StartFrame:     span.Start,
			DurationFrames: span.Duration,
			NeedsReview:    src.State.NeedsReview && !overridden,
			Overridden:     overridden,
		})
	}
	return nil
}

// overlayTrack converts region-relative overlay timing to absolute frames.
func (c *Composer) overlayTrack(spec *RenderSpec, in Input) error {
	if in.Brand == nil {
		return nil
	}
	clock := in.Table.Clock()
	regions := in.Brand.Regions(in.Table)

	for _, o := range in.Brand.Overlays(in.Scenes) {
		region, err := overlayRegion(in.Table, regions, o)
		if err != nil {
			return err
		}
		if region.Len() == 0 && o.UntilRegionEnd {
			c.logger.Debug("overlay skipped: empty region", zap.String("kind", string(o.Kind)))
			continue
		}
		start := region.Start + clock.ToFrames(o.StartSeconds)
		end := region.End
		if !o.UntilRegionEnd {
			end = start + clock.ToFrames(o.DurationSeconds)
		}
		if start < region.Start || end > region.End || end <= start {
			return violation(invRegion, "%s overlay [%d,%d) outside %s region [%d,%d)",
				o.Kind, start, end, o.Region, region.Start, region.End)
		}
		spec.overlayTrack = append(spec.overlayTrack, OverlayEntry{
			Kind:           o.Kind,
			Region:         o.Region,
			SceneID:        o.SceneID,
			AssetURL:       o.AssetURL,
			Text:           o.Text,
			Anchor:         o.Anchor,
			SizePercent:    o.SizePercent,
			Opacity:        o.Opacity,
			Animation:      o.Animation,
			StartFrame:     start,
			DurationFrames: end - start,
		})
	}
	sort.SliceStable(spec.overlayTrack, func(i, j int) bool {
		return spec.overlayTrack[i].StartFrame < spec.overlayTrack[j].StartFrame
	})
	return nil
}

func overlayRegion(table *frames.Table, regions brand.Regions, o brand.Overlay) (brand.FrameRange, error) {
	switch o.Region {
	case brand.RegionIntro:
		if !regions.HasIntro {
			return brand.FrameRange{}, violation(invRegion, "%s overlay without intro region", o.Kind)
		}
		return regions.Intro, nil
	case brand.RegionBody:
		return regions.Body, nil
	case brand.RegionOutro:
		if !regions.HasOutro {
			return brand.FrameRange{}, violation(invRegion, "%s overlay without outro region", o.Kind)
		}
		return regions.Outro, nil
	case brand.RegionScene:
		span, ok := table.SpanFor(o.SceneID)
		if !ok {
			return brand.FrameRange{}, violation(invRegion, "%s overlay for unknown scene %s", o.Kind, o.SceneID)
		}
		return brand.FrameRange{Start: span.Start, End: span.End()}, nil
	default:
		return brand.FrameRange{}, violation(invRegion, "unknown region %q", o.Region)
	}
}

func (c *Composer) audioTracks(ctx context.Context, spec *RenderSpec, in Input) error {
	if in.Sound == nil {
		return nil
	}

	for _, r := range in.Sound.VoiceoverRanges {
		public, err := c.resolve(ctx, r.AssetURL)
		if err != nil {
			return fmt.Errorf("%w: voiceover for scene %s: %w", ErrEssentialAsset, r.SceneID, err)
		}
		spec.voiceover = append(spec.voiceover, VoiceoverEntry{
			SceneID:        r.SceneID,
			AssetURL:       public,
			StartFrame:     r.StartFrame,
			DurationFrames: r.EndFrame - r.StartFrame,
		})
	}

	if in.MusicURL != "" {
		if public, err := c.resolve(ctx, in.MusicURL); err != nil {
			c.drop(spec, asset.KindMusic, in.MusicURL, err)
		} else if env := in.Sound.Envelope; env != nil {
			spec.music = &MusicTrack{
				AssetURL:      public,
				BaseVolume:    env.BaseVolume(),
				DuckLevel:     env.DuckLevel(),
				FadeFrames:    env.FadeFrames(),
				Envelope:      env.Keyframes(),
				DuckedRegions: env.DuckedRegions(),
			}
		}
	}

	resolved := make(map[string]string)
	for _, cue := range in.Sound.Cues() {
		public, ok := resolved[cue.AssetKey]
		if !ok {
			raw, known := in.SFXLibrary[cue.AssetKey]
			if !known {
				c.drop(spec, asset.KindSFX, cue.AssetKey, asset.Unresolvable(cue.AssetKey, "no library entry"))
				resolved[cue.AssetKey] = ""
				continue
			}
			var err error
			public, err = c.resolve(ctx, raw)
			if err != nil {
				c.drop(spec, asset.KindSFX, raw, err)
			}
			resolved[cue.AssetKey] = public
		}
		if public == "" {
			continue
		}
		spec.sfx = append(spec.sfx, SFXEntry{
			Kind:           cue.Kind,
			AssetKey:       cue.AssetKey,
			AssetURL:       public,
			StartFrame:     cue.AtFrame,
			DurationFrames: cue.DurationFrames,
			Volume:         cue.Volume,
		})
	}
	return nil
}

func (c *Composer) resolve(ctx context.Context, raw string) (string, error) {
	if c.resolver == nil {
		return "", errors.New("no resolver configured")
	}
	return c.resolver.Resolve(ctx, raw)
}

func (c *Composer) drop(spec *RenderSpec, kind asset.Kind, raw string, err error) {
	d := Dropped{Kind: string(kind), RawURL: raw, Reason: asset.Reason(err)}
	spec.dropped = append(spec.dropped, d)
	c.logger.Warn("asset dropped",
		zap.String("kind", d.Kind),
		zap.String("raw_url", raw),
		zap.String("reason", d.Reason),
	)
}

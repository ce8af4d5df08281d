package mapper

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gumaerc/midi-2-synth/pkg/logger"
	"github.com/gumaerc/midi-2-synth/pkg/synth"
)

// SegmentFilePattern matches segment files produced by a split run.
const SegmentFilePattern = "*_Segment.synth"

// mergeInput is one decoded and loaded segment file.
type mergeInput struct {
	Path string
	Meta SegmentMetadata
	File *synth.File
}

// Merger reassembles split segment files into one continuous beatmap.
type Merger struct {
	Difficulty string
}

// NewMerger returns a merger reading the default difficulty.
func NewMerger() *Merger {
	return &Merger{Difficulty: DefaultDifficulty}
}

// Merge rebuilds a single beatmap from the base beatmap and the given
// segment files. Segments are processed in ascending start-time order
// regardless of listing order; each is shifted into its own beat space by
// its recovered start time, bookmarked at its first note, and concatenated
// with BPM accommodation at the join. Any undecodable filename aborts the
// whole merge.
func (m *Merger) Merge(base *synth.File, segmentPaths []string) (*synth.File, error) {
	if len(segmentPaths) == 0 {
		return nil, ErrNoSegments
	}

	inputs := make([]mergeInput, 0, len(segmentPaths))
	for _, path := range segmentPaths {
		meta, err := ParseSegmentFilename(filepath.Base(path))
		if err != nil {
			return nil, err
		}
		file, err := synth.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load segment %s: %w", path, err)
		}
		inputs = append(inputs, mergeInput{Path: path, Meta: meta, File: file})
	}

	sort.SliceStable(inputs, func(i, j int) bool {
		return inputs[i].Meta.StartTimeS < inputs[j].Meta.StartTimeS
	})

	merged := base.Clone()
	for i, in := range inputs {
		seg := in.File.Clone()
		seg.ChangeOffset(0)

		// Shift into this segment's own beat space; the conversion uses
		// the segment's own BPM since segments may have distinct tempos.
		seg.OffsetEverything(in.Meta.StartTimeS)

		first, last, found := noteBounds(seg.Difficulty(m.difficulty()))
		if !found {
			logger.Warn("no notes found in segment",
				zap.Int("segment", i+1),
				zap.String("path", in.Path))
		}
		seg.Bookmarks[first] = fmt.Sprintf("%s BPM || Time Signature %d/4",
			bookmarkBPM(seg.BPM), m.beatsPerMeasureLabel(in.Meta))

		merged.Merge(seg, true)
		logger.Info("merged segment",
			zap.Int("segment", i+1),
			zap.Int("total", len(inputs)),
			zap.Float64("start_s", in.Meta.StartTimeS),
			zap.Float64("end_s", in.Meta.EndTimeS),
			zap.Float64("first_beat", first),
			zap.Float64("last_beat", last))
	}
	return merged, nil
}

// MergeFolder merges every segment file found in inputDir onto the base
// beatmap and saves the result.
func (m *Merger) MergeFolder(basePath, inputDir, outputPath string) error {
	paths, err := filepath.Glob(filepath.Join(inputDir, SegmentFilePattern))
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", inputDir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w in %s", ErrNoSegments, inputDir)
	}
	logger.Info("found segment files", zap.Int("count", len(paths)), zap.String("dir", inputDir))

	base, err := synth.Load(basePath)
	if err != nil {
		return fmt.Errorf("failed to load base beatmap %s: %w", basePath, err)
	}

	merged, err := m.Merge(base, paths)
	if err != nil {
		return err
	}
	if err := merged.SaveAs(outputPath); err != nil {
		return err
	}
	logger.Info("saved merged beatmap", zap.String("path", outputPath))
	return nil
}

// noteBounds finds the first and last note beat across all hand categories.
// With no notes both bounds are 0, putting the segment bookmark at beat 0.
func noteBounds(d *synth.Difficulty) (first, last float64, found bool) {
	for _, set := range []synth.NoteSet{d.Left, d.Right, d.Single, d.Both} {
		for beat := range set {
			if !found || beat < first {
				first = beat
			}
			if !found || beat > last {
				last = beat
			}
			found = true
		}
	}
	return first, last, found
}

// bookmarkBPM renders a BPM for the bookmark label, always carrying a
// decimal part: "120.0", "146.34".
func bookmarkBPM(bpm float64) string {
	s := strconv.FormatFloat(bpm, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (m *Merger) beatsPerMeasureLabel(meta SegmentMetadata) int {
	if meta.Meter == nil {
		return 4
	}
	return meta.Meter.Numerator
}

func (m *Merger) difficulty() string {
	if m.Difficulty == "" {
		return DefaultDifficulty
	}
	return m.Difficulty
}

package mapper

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gumaerc/midi-2-synth/pkg/logger"
	"github.com/gumaerc/midi-2-synth/pkg/synth"
)

// SplitSummary reports the outcome of a split run.
type SplitSummary struct {
	ChangePoints int
	Attempted    int
	Succeeded    int
	Failed       int
	Outputs      []string
}

// Splitter drives a full split run: one materialized beatmap file per
// tempo segment.
type Splitter struct {
	Materializer *Materializer
}

// NewSplitter returns a splitter with the default materializer.
func NewSplitter() *Splitter {
	return &Splitter{Materializer: NewMaterializer()}
}

// Run materializes every segment of the source beatmap into outputDir,
// named by the filename codec. A failed segment is logged and counted but
// does not stop its siblings; outputs keep segment order so filenames and
// counts are deterministic.
func (s *Splitter) Run(src *synth.File, sourceFilename string, segments []Segment, outputDir string) SplitSummary {
	summary := SplitSummary{Attempted: len(segments)}

	for i, seg := range segments {
		name := segmentMetadata(sourceFilename, i, seg).Filename(len(segments))
		logger.Info("creating segment file",
			zap.Int("segment", i+1),
			zap.Int("total", len(segments)),
			zap.String("filename", name),
			zap.Float64("duration_s", seg.DurationMs/1000.0))

		out, err := s.Materializer.Materialize(src, seg)
		if err != nil {
			summary.Failed++
			logger.Error("failed to create segment",
				zap.Int("segment", i+1),
				zap.String("filename", name),
				zap.Error(err))
			continue
		}

		path := filepath.Join(outputDir, name)
		if err := out.SaveAs(path); err != nil {
			summary.Failed++
			logger.Error("failed to save segment",
				zap.Int("segment", i+1),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		summary.Succeeded++
		summary.Outputs = append(summary.Outputs, path)
	}
	return summary
}

// SplitBeatmap runs the whole split pipeline: load the source beatmap,
// extract the tempo timeline from the MIDI file, expand it into segments
// and materialize each one into outputDir.
func SplitBeatmap(midiPath, sourcePath, outputDir string) (SplitSummary, error) {
	src, err := synth.Load(sourcePath)
	if err != nil {
		return SplitSummary{}, fmt.Errorf("failed to load base beatmap: %w", err)
	}
	logger.Info("base beatmap loaded",
		zap.String("name", src.Meta.Name),
		zap.String("artist", src.Meta.Artist),
		zap.String("mapper", src.Meta.Mapper),
		zap.Float64("bpm", src.BPM),
		zap.Float64("offset_ms", src.OffsetMs))

	data, err := os.ReadFile(midiPath)
	if err != nil {
		return SplitSummary{}, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	cm, err := ParseTimeline(data, src.BPM)
	if err != nil {
		return SplitSummary{}, err
	}
	if cm.Len() == 0 {
		return SplitSummary{}, fmt.Errorf("no tempo changes found in %s", midiPath)
	}

	audioDurationMs := src.AudioDuration * 1000.0
	if audioDurationMs <= 0 {
		return SplitSummary{}, fmt.Errorf("could not determine audio duration of %s", sourcePath)
	}
	logger.Info("source audio duration", zap.Float64("seconds", src.AudioDuration))

	segments := BuildSegments(cm, audioDurationMs, src.BPM)
	if len(segments) == 0 {
		return SplitSummary{}, fmt.Errorf("no tempo segments could be created from %s", midiPath)
	}

	summary := NewSplitter().Run(src, filepath.Base(sourcePath), segments, outputDir)
	summary.ChangePoints = cm.Len()

	logger.Info("split finished",
		zap.Int("change_points", summary.ChangePoints),
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.String("output_dir", outputDir))
	return summary, nil
}

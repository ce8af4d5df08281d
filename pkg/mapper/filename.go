package mapper

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Canonical segment filename grammar:
//
//	{base}_{index}_BPM{bpm}[_TimeSignature{num}-{den}]_{start}s-{end}s_dur{duration}s_Segment.{ext}
//
// Seconds use up to 3 decimals with trailing zeros and decimal point
// stripped; BPM uses its shortest representation. This is the one bit-exact
// external contract the core owns.
var segmentFilenamePattern = regexp.MustCompile(
	`^(.+?)_(\d+)_BPM(\d+(?:\.\d+)?)(?:_TimeSignature(\d+)-(\d+))?_(\d+(?:\.\d+)?)s-(\d+(?:\.\d+)?)s_dur(\d+(?:\.\d+)?)s_Segment\.(.+)$`)

// Filename encodes the metadata into the canonical segment filename.
// total is the number of segments in the batch, deciding the zero padding
// of the sequence number.
func (m SegmentMetadata) Filename(total int) string {
	digits := len(strconv.Itoa(total))
	seq := fmt.Sprintf("%0*d", digits, m.SegmentNumber)

	timeSig := ""
	if m.Meter != nil {
		timeSig = fmt.Sprintf("_TimeSignature%d-%d", m.Meter.Numerator, m.Meter.Denominator)
	}

	return fmt.Sprintf("%s_%s_BPM%s%s_%ss-%ss_dur%ss_Segment.%s",
		m.BaseName, seq, formatBPM(m.BPM), timeSig,
		formatSeconds(m.StartTimeS), formatSeconds(m.EndTimeS), formatSeconds(m.DurationS),
		m.FileExtension)
}

// ParseSegmentFilename decodes a segment filename back into its metadata.
func ParseSegmentFilename(filename string) (SegmentMetadata, error) {
	groups := segmentFilenamePattern.FindStringSubmatch(filename)
	if groups == nil {
		return SegmentMetadata{}, &FilenameFormatError{Filename: filename}
	}

	number, _ := strconv.Atoi(groups[2])
	bpm, _ := strconv.ParseFloat(groups[3], 64)
	start, _ := strconv.ParseFloat(groups[6], 64)
	end, _ := strconv.ParseFloat(groups[7], 64)
	duration, _ := strconv.ParseFloat(groups[8], 64)

	meta := SegmentMetadata{
		BaseName:      groups[1],
		SegmentNumber: number,
		BPM:           bpm,
		StartTimeS:    start,
		EndTimeS:      end,
		DurationS:     duration,
		FileExtension: groups[9],
	}
	if groups[4] != "" {
		num, _ := strconv.Atoi(groups[4])
		den, _ := strconv.Atoi(groups[5])
		meta.Meter = &TimeSignature{Numerator: num, Denominator: den}
	}
	return meta, nil
}

// segmentMetadata binds a segment to the source beatmap's filename for
// naming. index is zero-based.
func segmentMetadata(sourceFilename string, index int, seg Segment) SegmentMetadata {
	ext := filepath.Ext(sourceFilename)
	meter := seg.Meter
	return SegmentMetadata{
		BaseName:      strings.TrimSuffix(filepath.Base(sourceFilename), ext),
		SegmentNumber: index + 1,
		BPM:           seg.BPM,
		Meter:         &meter,
		StartTimeS:    seg.StartMs / 1000.0,
		EndTimeS:      seg.EndMs / 1000.0,
		DurationS:     seg.DurationMs / 1000.0,
		FileExtension: strings.TrimPrefix(ext, "."),
	}
}

// formatBPM renders a BPM in its shortest form: "170", "128.25".
func formatBPM(bpm float64) string {
	return strconv.FormatFloat(bpm, 'g', -1, 64)
}

// formatSeconds renders seconds with 3 decimals, trailing zeros and the
// decimal point stripped: "0", "228.706", "12.5".
func formatSeconds(s float64) string {
	str := strconv.FormatFloat(s, 'f', 3, 64)
	str = strings.TrimRight(str, "0")
	return strings.TrimRight(str, ".")
}

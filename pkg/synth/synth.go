// Package synth implements the .synth beatmap container: a zip archive
// holding a JSON metadata entry plus the audio track.
package synth

import (
	"archive/zip"
	"fmt"
	"os"

	"github.com/gumaerc/midi-2-synth/pkg/audio"
)

// MetadataEntry is the name of the JSON payload inside the container.
const MetadataEntry = "beatmap.meta.bin"

// Meta describes the beatmap.
type Meta struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Mapper string `json:"mapper"`
}

// Note is a single playable note: a grid coordinate at a beat time.
type Note struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Time float64 `json:"time"`
}

// NoteSet maps beat time to a note.
type NoteSet map[float64]Note

// Difficulty holds one difficulty's notes keyed by hand category.
type Difficulty struct {
	Left   NoteSet
	Right  NoteSet
	Single NoteSet
	Both   NoteSet
}

// NewDifficulty returns an empty difficulty.
func NewDifficulty() *Difficulty {
	return &Difficulty{
		Left:   NoteSet{},
		Right:  NoteSet{},
		Single: NoteSet{},
		Both:   NoteSet{},
	}
}

// sets returns the four hand categories for iteration.
func (d *Difficulty) sets() []NoteSet {
	return []NoteSet{d.Left, d.Right, d.Single, d.Both}
}

// NoteCount is the total number of notes across all hand categories.
func (d *Difficulty) NoteCount() int {
	n := 0
	for _, set := range d.sets() {
		n += len(set)
	}
	return n
}

// File is an in-memory beatmap.
type File struct {
	Meta          Meta
	BPM           float64
	OffsetMs      float64
	AudioName     string
	AudioRaw      []byte
	AudioDuration float64 // seconds
	Difficulties  map[string]*Difficulty
	Bookmarks     map[float64]string
}

// New returns an empty beatmap at the given BPM.
func New(bpm float64) *File {
	return &File{
		BPM:          bpm,
		Difficulties: map[string]*Difficulty{},
		Bookmarks:    map[float64]string{},
	}
}

// Difficulty returns the named difficulty, creating it if missing.
func (f *File) Difficulty(name string) *Difficulty {
	d, ok := f.Difficulties[name]
	if !ok {
		d = NewDifficulty()
		f.Difficulties[name] = d
	}
	return d
}

// Clone returns a deep copy.
func (f *File) Clone() *File {
	out := &File{
		Meta:          f.Meta,
		BPM:           f.BPM,
		OffsetMs:      f.OffsetMs,
		AudioName:     f.AudioName,
		AudioDuration: f.AudioDuration,
		Difficulties:  make(map[string]*Difficulty, len(f.Difficulties)),
		Bookmarks:     make(map[float64]string, len(f.Bookmarks)),
	}
	if f.AudioRaw != nil {
		out.AudioRaw = append([]byte(nil), f.AudioRaw...)
	}
	for name, d := range f.Difficulties {
		out.Difficulties[name] = &Difficulty{
			Left:   cloneNotes(d.Left),
			Right:  cloneNotes(d.Right),
			Single: cloneNotes(d.Single),
			Both:   cloneNotes(d.Both),
		}
	}
	for beat, label := range f.Bookmarks {
		out.Bookmarks[beat] = label
	}
	return out
}

func cloneNotes(src NoteSet) NoteSet {
	out := make(NoteSet, len(src))
	for beat, n := range src {
		out[beat] = n
	}
	return out
}

// SetAudio replaces the audio track and refreshes the cached duration.
func (f *File) SetAudio(raw []byte, name string) error {
	duration, err := audio.Duration(raw)
	if err != nil {
		return fmt.Errorf("cannot probe audio: %w", err)
	}
	f.AudioRaw = raw
	f.AudioName = name
	f.AudioDuration = duration
	return nil
}

// ChangeBPM sets a new tempo, rescaling every beat coordinate so notes and
// bookmarks keep their wall-clock positions.
func (f *File) ChangeBPM(bpm float64) {
	if bpm == f.BPM || f.BPM == 0 {
		f.BPM = bpm
		return
	}
	scale := bpm / f.BPM
	f.rescale(scale)
	f.BPM = bpm
}

// ChangeOffset sets the start-of-audio marker in milliseconds.
func (f *File) ChangeOffset(offsetMs float64) {
	f.OffsetMs = offsetMs
}

// OffsetEverything shifts every note and bookmark forward by the delta in
// seconds, converted to beats at this file's own BPM.
func (f *File) OffsetEverything(deltaSeconds float64) {
	deltaBeats := deltaSeconds * f.BPM / 60.0
	for _, d := range f.Difficulties {
		for _, set := range d.sets() {
			shifted := make(NoteSet, len(set))
			for beat, n := range set {
				n.Time += deltaBeats
				shifted[beat+deltaBeats] = n
			}
			replaceNotes(set, shifted)
		}
	}
	shiftedMarks := make(map[float64]string, len(f.Bookmarks))
	for beat, label := range f.Bookmarks {
		shiftedMarks[beat+deltaBeats] = label
	}
	f.Bookmarks = shiftedMarks
}

// Merge concatenates another beatmap's notes and bookmarks into this one.
// With adjustBPM the other file's beat coordinates are rescaled by
// bpm/other.bpm, so its absolute wall-clock timing is preserved under this
// file's tempo.
func (f *File) Merge(other *File, adjustBPM bool) {
	scale := 1.0
	if adjustBPM && other.BPM != 0 && other.BPM != f.BPM {
		scale = f.BPM / other.BPM
	}
	for name, src := range other.Difficulties {
		dst := f.Difficulty(name)
		mergeNotes(dst.Left, src.Left, scale)
		mergeNotes(dst.Right, src.Right, scale)
		mergeNotes(dst.Single, src.Single, scale)
		mergeNotes(dst.Both, src.Both, scale)
	}
	for beat, label := range other.Bookmarks {
		f.Bookmarks[beat*scale] = label
	}
}

func mergeNotes(dst, src NoteSet, scale float64) {
	for beat, n := range src {
		n.Time *= scale
		dst[beat*scale] = n
	}
}

func (f *File) rescale(scale float64) {
	for _, d := range f.Difficulties {
		for _, set := range d.sets() {
			scaled := make(NoteSet, len(set))
			for beat, n := range set {
				n.Time *= scale
				scaled[beat*scale] = n
			}
			replaceNotes(set, scaled)
		}
	}
	scaledMarks := make(map[float64]string, len(f.Bookmarks))
	for beat, label := range f.Bookmarks {
		scaledMarks[beat*scale] = label
	}
	f.Bookmarks = scaledMarks
}

func replaceNotes(dst, src NoteSet) {
	for beat := range dst {
		delete(dst, beat)
	}
	for beat, n := range src {
		dst[beat] = n
	}
}

// Load reads a beatmap from a .synth file.
func Load(path string) (*File, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open beatmap container: %w", err)
	}
	defer func() { _ = r.Close() }()
	return readContainer(&r.Reader)
}

// SaveAs writes the beatmap to a .synth file.
func (f *File) SaveAs(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create beatmap container: %w", err)
	}
	w := zip.NewWriter(out)
	if err := f.writeContainer(w); err != nil {
		_ = w.Close()
		_ = out.Close()
		return err
	}
	if err := w.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to finalize beatmap container: %w", err)
	}
	return out.Close()
}

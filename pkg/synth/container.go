package synth

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gumaerc/midi-2-synth/pkg/audio"
)

// JSON shape of the metadata entry. Beat keys are serialized as their
// shortest exact decimal representation so a save/load round trip does not
// move notes.
type fileJSON struct {
	Meta         Meta                      `json:"meta"`
	BPM          float64                   `json:"bpm"`
	OffsetMs     float64                   `json:"offset_ms"`
	AudioName    string                    `json:"audio_name"`
	Difficulties map[string]difficultyJSON `json:"difficulties"`
	Bookmarks    map[string]string         `json:"bookmarks"`
}

type difficultyJSON struct {
	Left   map[string]Note `json:"left"`
	Right  map[string]Note `json:"right"`
	Single map[string]Note `json:"single"`
	Both   map[string]Note `json:"both"`
}

func formatBeat(beat float64) string {
	return strconv.FormatFloat(beat, 'g', -1, 64)
}

func notesToJSON(set NoteSet) map[string]Note {
	out := make(map[string]Note, len(set))
	for beat, n := range set {
		out[formatBeat(beat)] = n
	}
	return out
}

func notesFromJSON(src map[string]Note) (NoteSet, error) {
	out := make(NoteSet, len(src))
	for key, n := range src {
		beat, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid beat key %q: %w", key, err)
		}
		out[beat] = n
	}
	return out, nil
}

func (f *File) writeContainer(w *zip.Writer) error {
	payload := fileJSON{
		Meta:         f.Meta,
		BPM:          f.BPM,
		OffsetMs:     f.OffsetMs,
		AudioName:    f.AudioName,
		Difficulties: make(map[string]difficultyJSON, len(f.Difficulties)),
		Bookmarks:    make(map[string]string, len(f.Bookmarks)),
	}
	for name, d := range f.Difficulties {
		payload.Difficulties[name] = difficultyJSON{
			Left:   notesToJSON(d.Left),
			Right:  notesToJSON(d.Right),
			Single: notesToJSON(d.Single),
			Both:   notesToJSON(d.Both),
		}
	}
	for beat, label := range f.Bookmarks {
		payload.Bookmarks[formatBeat(beat)] = label
	}

	meta, err := w.Create(MetadataEntry)
	if err != nil {
		return fmt.Errorf("failed to create metadata entry: %w", err)
	}
	if err := json.NewEncoder(meta).Encode(payload); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if len(f.AudioRaw) > 0 {
		name := f.AudioName
		if name == "" {
			name = "track.wav"
		}
		entry, err := w.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create audio entry: %w", err)
		}
		if _, err := entry.Write(f.AudioRaw); err != nil {
			return fmt.Errorf("failed to write audio entry: %w", err)
		}
	}
	return nil
}

func readContainer(r *zip.Reader) (*File, error) {
	var payload *fileJSON
	var audioRaw []byte
	var audioName string

	for _, entry := range r.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open container entry %s: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read container entry %s: %w", entry.Name, err)
		}
		if entry.Name == MetadataEntry {
			payload = &fileJSON{}
			if err := json.Unmarshal(data, payload); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		} else {
			audioRaw = data
			audioName = entry.Name
		}
	}
	if payload == nil {
		return nil, errors.New("container has no metadata entry")
	}

	f := New(payload.BPM)
	f.Meta = payload.Meta
	f.OffsetMs = payload.OffsetMs
	f.AudioName = payload.AudioName
	if f.AudioName == "" {
		f.AudioName = audioName
	}
	for name, d := range payload.Difficulties {
		left, err := notesFromJSON(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := notesFromJSON(d.Right)
		if err != nil {
			return nil, err
		}
		single, err := notesFromJSON(d.Single)
		if err != nil {
			return nil, err
		}
		both, err := notesFromJSON(d.Both)
		if err != nil {
			return nil, err
		}
		f.Difficulties[name] = &Difficulty{Left: left, Right: right, Single: single, Both: both}
	}
	for key, label := range payload.Bookmarks {
		beat, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bookmark key %q: %w", key, err)
		}
		f.Bookmarks[beat] = label
	}

	if len(audioRaw) > 0 {
		f.AudioRaw = audioRaw
		duration, err := audio.Duration(audioRaw)
		if err != nil {
			return nil, fmt.Errorf("cannot probe container audio: %w", err)
		}
		f.AudioDuration = duration
	}
	return f, nil
}

package looper

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// NumTracks is the number of loop tracks of the looper.
const NumTracks = 4

type (
	// Settings is the content of a settings file. A file only needs to list
	// the values that differ from the defaults.
	Settings struct {
		Global GlobalConfig   `yaml:"global"`
		Input  EffectConfig   `yaml:"input"`
		Tracks TrackConfigs   `yaml:"tracks"`
		Engine EngineSettings `yaml:"engine"`
		Audio  AudioSettings  `yaml:"audio"`
		MIDI   MIDISettings   `yaml:"midi"`
	}

	// TrackConfigs are the configurations of all tracks. When decoded, the
	// i:th element of the YAML sequence is merged over the i:th config, so a
	// file can list fewer tracks and only the fields it changes.
	TrackConfigs [NumTracks]TrackConfig

	EngineSettings struct {
		// MaxRecordSeconds bounds the length of a single recording; capture
		// buffers of this size are allocated once per track.
		MaxRecordSeconds float64 `yaml:"maxRecordSeconds"`
	}

	AudioSettings struct {
		Backend      string `yaml:"backend"` // "malgo" or "oto"
		SampleRate   int    `yaml:"sampleRate"`
		PeriodFrames int    `yaml:"periodFrames"`
	}

	MIDISettings struct {
		// Input is a prefix of the name of the MIDI input port to listen to;
		// empty means the first available port.
		Input    string        `yaml:"input"`
		Bindings []MIDIBinding `yaml:"bindings"`
	}

	// MIDIBinding maps a note-on or control change message to an action. A
	// control change triggers when its value crosses from below 64 to 64 or
	// above, like a sustain pedal being pressed.
	MIDIBinding struct {
		Note    *uint8 `yaml:"note,omitempty"`
		CC      *uint8 `yaml:"cc,omitempty"`
		Channel int    `yaml:"channel"` // 1-16, 0 = any
		Action  Action `yaml:"action"`
		Track   int    `yaml:"track"` // 1-based, for track actions
	}
)

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	s := Settings{
		Global: DefaultGlobalConfig(),
		Input:  DefaultEffectConfig(),
		Engine: EngineSettings{MaxRecordSeconds: 120},
		Audio:  AudioSettings{Backend: "malgo", SampleRate: 48000, PeriodFrames: 256},
		MIDI:   MIDISettings{Bindings: DefaultMIDIBindings()},
	}
	for i := range s.Tracks {
		s.Tracks[i] = DefaultTrackConfig()
	}
	return s
}

// DefaultMIDIBindings maps notes 60-63 to the main action of tracks 1-4,
// notes 64-67 to play/stop, 68-71 to undo and 72 to stop all.
func DefaultMIDIBindings() []MIDIBinding {
	var ret []MIDIBinding
	note := func(n uint8) *uint8 { return &n }
	for i := 0; i < NumTracks; i++ {
		ret = append(ret,
			MIDIBinding{Note: note(uint8(60 + i)), Action: ActionRecord, Track: i + 1},
			MIDIBinding{Note: note(uint8(64 + i)), Action: ActionPlayStop, Track: i + 1},
			MIDIBinding{Note: note(uint8(68 + i)), Action: ActionUndo, Track: i + 1},
		)
	}
	return append(ret, MIDIBinding{Note: note(72), Action: ActionStopAll})
}

// ReadSettings decodes settings from r over the defaults and normalizes
// them.
func ReadSettings(r io.Reader) (Settings, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s.Normalize(), nil
}

// LoadSettings reads a settings file. A missing file is not an error: the
// defaults are returned.
func LoadSettings(path string) (Settings, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("opening settings: %w", err)
	}
	defer f.Close()
	return ReadSettings(f)
}

// WriteSettings encodes settings as YAML.
func WriteSettings(w io.Writer, s Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return enc.Close()
}

func (t *TrackConfigs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: tracks must be a sequence", value.Line)
	}
	if len(value.Content) > NumTracks {
		return fmt.Errorf("line %d: at most %d tracks, got %d", value.Line, NumTracks, len(value.Content))
	}
	for i, n := range value.Content {
		if err := n.Decode(&t[i]); err != nil {
			return fmt.Errorf("track %d: %w", i+1, err)
		}
	}
	return nil
}

func (s Settings) Normalize() Settings {
	s.Global = s.Global.Normalize()
	s.Input = s.Input.Normalize()
	for i := range s.Tracks {
		s.Tracks[i] = s.Tracks[i].Normalize()
	}
	if s.Engine.MaxRecordSeconds <= 0 {
		s.Engine.MaxRecordSeconds = DefaultSettings().Engine.MaxRecordSeconds
	}
	s.Engine.MaxRecordSeconds = min(s.Engine.MaxRecordSeconds, 600)
	if s.Audio.SampleRate <= 0 {
		s.Audio.SampleRate = 48000
	}
	if s.Audio.PeriodFrames <= 0 {
		s.Audio.PeriodFrames = 256
	}
	valid := s.MIDI.Bindings[:0]
	for _, b := range s.MIDI.Bindings {
		if (b.Note == nil) == (b.CC == nil) {
			continue
		}
		if b.Action.IsTrackAction() && (b.Track < 1 || b.Track > NumTracks) {
			continue
		}
		valid = append(valid, b)
	}
	s.MIDI.Bindings = valid
	return s
}

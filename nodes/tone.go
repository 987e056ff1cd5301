package nodes

import (
	"math"
	"strconv"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// TypeTone is the registry name of Tone.
const TypeTone = "tone"

// MaxVoices is the polyphony of Tone.
const MaxVoices = 8

const (
	attackSeconds = 0.005
	ccAllNotesOff = 123
)

type voice struct {
	key    uint8
	held   bool
	phase  float64
	inc    float64
	amp    float64
	env    float64
	serial uint64
}

func (v *voice) sounding() bool { return v.held || v.env > 0 }

// Tone is a polyphonic sine instrument driven by MIDI notes. All audio
// outputs carry the same signal.
type Tone struct {
	layout  *port.List
	level   *param.ControlPort
	release *param.ControlPort

	sampleRate float64
	attack     float64
	lastLevel  float64
	voices     [MaxVoices]voice
	serial     uint64
}

// NewTone returns a tone instrument with the given number of outputs.
func NewTone(outputs int) *Tone {
	outputs = max(outputs, 1)

	b := port.NewBuilder()
	b.Add(port.Midi, true, "midi_in", "MIDI In")
	for i := range outputs {
		s := strconv.Itoa(i + 1)
		b.Add(port.Audio, false, "out_"+s, "Out "+s)
	}
	levelIdx := b.AddControl(true, "level", "Level", 0, 1, 0.5)
	releaseIdx := b.AddControl(true, "release", "Release (ms)", 1, 2000, 50)

	layout := b.List()
	levelDesc, _ := layout.Port(levelIdx)
	releaseDesc, _ := layout.Port(releaseIdx)

	return &Tone{
		layout:     layout,
		level:      param.NewControlPort(levelDesc, 0),
		release:    param.NewControlPort(releaseDesc, 1),
		sampleRate: 48000,
	}
}

func (t *Tone) TypeName() string     { return TypeTone }
func (t *Tone) Kind() processor.Kind { return processor.KindInstrument }
func (t *Tone) Ports() *port.List    { return t.layout.Clone() }

// Parameters returns the level and release controls.
func (t *Tone) Parameters() []*param.ControlPort {
	return []*param.ControlPort{t.level, t.release}
}

// State returns the controls as a program blob.
func (t *Tone) State() ([]byte, error) { return paramState(t.Parameters()) }

// SetState restores a blob returned by State.
func (t *Tone) SetState(data []byte) error { return setParamState(t.Parameters(), data) }

func (t *Tone) Prepare(ctx processor.PrepareContext) error {
	t.sampleRate = ctx.SampleRate
	t.attack = 1 / (attackSeconds * ctx.SampleRate)
	t.voices = [MaxVoices]voice{}
	t.lastLevel = t.level.Get()

	return nil
}

func (t *Tone) Release() {}

// ActiveVoices returns the number of sounding voices.
func (t *Tone) ActiveVoices() int {
	n := 0
	for i := range t.voices {
		if t.voices[i].sounding() {
			n++
		}
	}

	return n
}

func (t *Tone) Render(b *processor.Block) {
	if b.AudioOuts == 0 {
		return
	}

	out := b.Audio.Channel(0)
	clear(out)

	pos := 0
	if b.MidiIns > 0 {
		in := b.Midi.ReadBuffer(0)
		for i := range in.Len() {
			msg, frame := in.Event(i)
			frame = min(max(frame, pos), len(out))
			t.renderVoices(out[pos:frame])
			pos = frame
			t.handle(msg)
		}
	}
	t.renderVoices(out[pos:])

	level := t.level.Get()
	b.Audio.ApplyGainRamp(0, t.lastLevel, level)
	t.lastLevel = level
	for ch := 1; ch < b.AudioOuts; ch++ {
		b.Audio.CopyChannel(ch, out)
	}
}

func (t *Tone) handle(msg midi.Message) {
	var ch, key, vel, ctl, val uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		t.noteOn(key, vel)
	case msg.GetNoteEnd(&ch, &key):
		for i := range t.voices {
			if v := &t.voices[i]; v.held && v.key == key {
				v.held = false
			}
		}
	case msg.GetControlChange(&ch, &ctl, &val) && ctl == ccAllNotesOff:
		for i := range t.voices {
			t.voices[i].held = false
		}
	}
}

func (t *Tone) noteOn(key, vel uint8) {
	// Reuse a silent voice, else steal the oldest.
	slot := 0
	for i := range t.voices {
		if !t.voices[i].sounding() {
			slot = i
			break
		}
		if t.voices[i].serial < t.voices[slot].serial {
			slot = i
		}
	}

	t.serial++
	freq := 440 * math.Pow(2, (float64(key)-69)/12)
	t.voices[slot] = voice{
		key:    key,
		held:   true,
		inc:    2 * math.Pi * freq / t.sampleRate,
		amp:    float64(vel) / 127,
		serial: t.serial,
	}
}

func (t *Tone) renderVoices(out []float64) {
	if len(out) == 0 {
		return
	}

	releaseStep := 1000 / (t.release.Get() * t.sampleRate)

	for i := range t.voices {
		v := &t.voices[i]
		if !v.sounding() {
			continue
		}

		for j := range out {
			if v.held {
				v.env = min(1, v.env+t.attack)
			} else {
				v.env = max(0, v.env-releaseStep)
			}

			out[j] += math.Sin(v.phase) * v.amp * v.env
			v.phase += v.inc
			if v.phase >= 2*math.Pi {
				v.phase -= 2 * math.Pi
			}
		}
	}
}

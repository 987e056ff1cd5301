package midi

import (
	"gitlab.com/gomidi/midi/v2"
)

// ChannelSet is a set of MIDI channels; bit n stands for channel n
// (zero based).
type ChannelSet uint16

// AllChannels accepts every channel.
const AllChannels ChannelSet = 0xFFFF

// Has reports whether channel (0-15) is in the set.
func (s ChannelSet) Has(channel uint8) bool {
	return channel < 16 && s&(1<<channel) != 0
}

// With returns the set plus channel.
func (s ChannelSet) With(channel uint8) ChannelSet {
	if channel >= 16 {
		return s
	}

	return s | 1<<channel
}

// Without returns the set minus channel.
func (s ChannelSet) Without(channel uint8) ChannelSet {
	if channel >= 16 {
		return s
	}

	return s &^ (1 << channel)
}

// Single returns a set holding only channel.
func Single(channel uint8) ChannelSet {
	return ChannelSet(0).With(channel)
}

// KeyRange is an inclusive note range.
type KeyRange struct {
	Low  uint8
	High uint8
}

// FullKeyRange accepts every note.
var FullKeyRange = KeyRange{Low: 0, High: 127}

// Contains reports whether key lies in the range.
func (r KeyRange) Contains(key uint8) bool {
	return key >= r.Low && key <= r.High
}

// Channel returns the channel of a channel voice message.
func Channel(msg midi.Message) (uint8, bool) {
	if len(msg) == 0 || msg[0] < 0x80 || msg[0] > 0xEF {
		return 0, false
	}

	return msg[0] & 0x0F, true
}

// isNote reports whether msg carries a key number in its second byte.
func isNote(msg midi.Message) bool {
	var channel, key, velocity uint8
	return msg.GetNoteOn(&channel, &key, &velocity) ||
		msg.GetNoteOff(&channel, &key, &velocity) ||
		msg.GetPolyAfterTouch(&channel, &key, &velocity)
}

// Transpose shifts the key of a note message in place. Messages whose key
// would leave 0..127 are left unchanged and reported false.
func Transpose(msg midi.Message, semitones int) bool {
	if semitones == 0 || len(msg) < 2 || !isNote(msg) {
		return false
	}

	key := int(msg[1]) + semitones
	if key < 0 || key > 127 {
		return false
	}

	msg[1] = byte(key)

	return true
}

// Shape applies a node's MIDI input settings to b in place: channel voice
// messages outside channels are dropped, notes outside keys are dropped and
// the remaining notes are transposed.
func Shape(b *Buffer, channels ChannelSet, keys KeyRange, transpose int) {
	if channels == AllChannels && keys == FullKeyRange && transpose == 0 {
		return
	}

	b.Filter(func(msg midi.Message, _ int) bool {
		if ch, ok := Channel(msg); ok && !channels.Has(ch) {
			return false
		}

		if isNote(msg) {
			if !keys.Contains(msg[1]) {
				return false
			}

			Transpose(msg, transpose)
		}

		return true
	})
}

// ProgramChange reports the last program change in b whose channel is in
// channels.
func ProgramChange(b *Buffer, channels ChannelSet) (uint8, bool) {
	var (
		program uint8
		found   bool
	)

	for i := range b.Len() {
		msg, _ := b.Event(i)

		var channel, p uint8
		if msg.GetProgramChange(&channel, &p) && channels.Has(channel) {
			program, found = p, true
		}
	}

	return program, found
}

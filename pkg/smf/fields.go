package smf

import (
	"encoding/binary"
	"fmt"
)

func (e Event) requireKind(kinds ...Kind) error {
	for _, k := range kinds {
		if e.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidFieldForEvent, e.Kind)
}

// Data returns the event's raw payload bytes: channel data bytes for
// channel events, or the meta/sysex body otherwise. Always valid.
func (e Event) Data() []byte { return e.Payload }

// Note returns the note number of a NOTE_ON, NOTE_OFF, or POLY_TOUCH event.
func (e Event) Note() (uint8, error) {
	if err := e.requireKind(KindNoteOn, KindNoteOff, KindPolyTouch); err != nil {
		return 0, err
	}
	return e.Payload[0], nil
}

// Velocity returns the velocity of a NOTE_ON or NOTE_OFF event.
func (e Event) Velocity() (uint8, error) {
	if err := e.requireKind(KindNoteOn, KindNoteOff); err != nil {
		return 0, err
	}
	return e.Payload[1], nil
}

// Value returns the pressure/controller value of a POLY_TOUCH,
// CONTROL_CHANGE, or AFTERTOUCH (channel pressure) event.
func (e Event) Value() (uint8, error) {
	if err := e.requireKind(KindPolyTouch, KindControlChange, KindAftertouch); err != nil {
		return 0, err
	}
	if e.Kind == KindAftertouch {
		return e.Payload[0], nil
	}
	return e.Payload[1], nil
}

// Control returns the controller number of a CONTROL_CHANGE event.
func (e Event) Control() (uint8, error) {
	if err := e.requireKind(KindControlChange); err != nil {
		return 0, err
	}
	return e.Payload[0], nil
}

// Program returns the program number of a PROGRAM_CHANGE event.
func (e Event) Program() (uint8, error) {
	if err := e.requireKind(KindProgramChange); err != nil {
		return 0, err
	}
	return e.Payload[0], nil
}

// Pitch returns a PITCH_WHEEL event's value centered on zero, in
// [-8192, 8191].
func (e Event) Pitch() (int, error) {
	if err := e.requireKind(KindPitchWheel); err != nil {
		return 0, err
	}
	lsb, msb := e.Payload[0], e.Payload[1]
	return int(uint16(lsb)|uint16(msb)<<7) - 8192, nil
}

// Tempo returns a SET_TEMPO event's microseconds-per-quarter-note value.
func (e Event) Tempo() (uint32, error) {
	if err := e.requireKind(KindSetTempo); err != nil {
		return 0, err
	}
	if len(e.Payload) < 3 {
		return 0, fmt.Errorf("%w: short SET_TEMPO payload", ErrInvalidFieldForEvent)
	}
	return uint32(e.Payload[0])<<16 | uint32(e.Payload[1])<<8 | uint32(e.Payload[2]), nil
}

// TimeSignature decomposes a TIME_SIGNATURE event's payload. denominator
// is the actual note value (4, 8, ...), not the payload's log2 encoding.
func (e Event) TimeSignature() (numerator, denominator, clocksPerClick, notated32ndPerBeat uint8, err error) {
	if err = e.requireKind(KindTimeSignature); err != nil {
		return
	}
	if len(e.Payload) < 4 {
		err = fmt.Errorf("%w: short TIME_SIGNATURE payload", ErrInvalidFieldForEvent)
		return
	}
	numerator = e.Payload[0]
	denominator = 1 << e.Payload[1]
	clocksPerClick = e.Payload[2]
	notated32ndPerBeat = e.Payload[3]
	return
}

// KeySignature returns a KEY_SIGNATURE event's key name, e.g. "D", "F#m",
// "Bb". Major keys are unsuffixed; minor keys are suffixed with "m".
func (e Event) KeySignature() (string, error) {
	if err := e.requireKind(KindKeySignature); err != nil {
		return "", err
	}
	if len(e.Payload) < 2 {
		return "", fmt.Errorf("%w: short KEY_SIGNATURE payload", ErrInvalidFieldForEvent)
	}
	return keySignatureName(int8(e.Payload[0]), e.Payload[1])
}

// ChannelPrefix returns a CHANNEL_PREFIX meta event's target channel.
// Distinct from Event.Channel, which is only populated for channel
// category events decoded from a status byte's low nibble.
func (e Event) ChannelPrefix() (uint8, error) {
	if err := e.requireKind(KindChannelPrefix); err != nil {
		return 0, err
	}
	if len(e.Payload) < 1 {
		return 0, fmt.Errorf("%w: short CHANNEL_PREFIX payload", ErrInvalidFieldForEvent)
	}
	return e.Payload[0], nil
}

// Port returns a MIDI_PORT meta event's port number.
func (e Event) Port() (uint8, error) {
	if err := e.requireKind(KindMIDIPort); err != nil {
		return 0, err
	}
	if len(e.Payload) < 1 {
		return 0, fmt.Errorf("%w: short MIDI_PORT payload", ErrInvalidFieldForEvent)
	}
	return e.Payload[0], nil
}

// SequenceNumber returns a SEQUENCE_NUMBER event's value. present is
// false for the zero-length form (which means "use the track's index").
func (e Event) SequenceNumber() (value uint16, present bool, err error) {
	if err = e.requireKind(KindSequenceNumber); err != nil {
		return
	}
	if len(e.Payload) == 0 {
		return 0, false, nil
	}
	if len(e.Payload) < 2 {
		err = fmt.Errorf("%w: short SEQUENCE_NUMBER payload", ErrInvalidFieldForEvent)
		return
	}
	return binary.BigEndian.Uint16(e.Payload), true, nil
}

// SMPTEOffset decomposes a SMPTE_OFFSET event's payload. frameRate is one
// of 24, 25, 29.97, or 30.
func (e Event) SMPTEOffset() (frameRate float64, hours, minutes, seconds, frames, subFrames uint8, err error) {
	if err = e.requireKind(KindSMPTEOffset); err != nil {
		return
	}
	if len(e.Payload) < 5 {
		err = fmt.Errorf("%w: short SMPTE_OFFSET payload", ErrInvalidFieldForEvent)
		return
	}
	switch (e.Payload[0] >> 5) & 0x03 {
	case 0:
		frameRate = 24
	case 1:
		frameRate = 25
	case 2:
		frameRate = 29.97
	case 3:
		frameRate = 30
	default:
		err = ErrInvalidSMPTEFrameRate
		return
	}
	hours = e.Payload[0] & 0x1F
	minutes = e.Payload[1]
	seconds = e.Payload[2]
	frames = e.Payload[3]
	subFrames = e.Payload[4]
	return
}

// Text returns the decoded text of any TEXT-family meta event (TEXT,
// COPYRIGHT, TRACK_NAME, INSTRUMENT_NAME, LYRICS, MARKER, CUE_MARKER,
// PROGRAM_NAME, DEVICE_NAME). Bytes with the high bit set are rendered as
// a literal \xNN escape rather than assuming a particular 8-bit code page.
func (e Event) Text() (string, error) {
	if err := e.requireKind(KindText, KindCopyright, KindTrackName, KindInstrumentName,
		KindLyrics, KindMarker, KindCueMarker, KindProgramName, KindDeviceName); err != nil {
		return "", err
	}
	return decodeASCIIEscaped(e.Payload), nil
}

// ToMIDI serializes a channel event back to its wire bytes (status byte
// with channel folded in, followed by its data bytes). Meta, sysex, and
// escape events are not transmittable this way.
func (e Event) ToMIDI() ([]byte, error) {
	switch e.Kind {
	case KindNoteOff, KindNoteOn, KindPolyTouch, KindControlChange,
		KindProgramChange, KindAftertouch, KindPitchWheel:
		out := make([]byte, 0, 1+len(e.Payload))
		out = append(out, e.Status|e.Channel)
		out = append(out, e.Payload...)
		return out, nil
	default:
		return nil, ErrNotTransmittable
	}
}

var majorKeyNames = map[int8]string{
	-7: "Cb", -6: "Gb", -5: "Db", -4: "Ab", -3: "Eb", -2: "Bb", -1: "F",
	0: "C", 1: "G", 2: "D", 3: "A", 4: "E", 5: "B", 6: "F#", 7: "C#",
}

var minorKeyNames = map[int8]string{
	-7: "Abm", -6: "Ebm", -5: "Bbm", -4: "Fm", -3: "Cm", -2: "Gm", -1: "Dm",
	0: "Am", 1: "Em", 2: "Bm", 3: "F#m", 4: "C#m", 5: "G#m", 6: "D#m", 7: "A#m",
}

func keySignatureName(sf int8, mi uint8) (string, error) {
	if sf < -7 || sf > 7 {
		return "", ErrInvalidKeySignature
	}
	switch mi {
	case 0:
		return majorKeyNames[sf], nil
	case 1:
		return minorKeyNames[sf], nil
	default:
		return "", ErrInvalidKeySignature
	}
}

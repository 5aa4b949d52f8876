package smf

import "fmt"

// Format is the SMF header's format field (0, 1, or 2).
type Format uint16

const (
	Format0 Format = 0
	Format1 Format = 1
	Format2 Format = 2
)

func (f Format) String() string {
	switch f {
	case Format0:
		return "format-0"
	case Format1:
		return "format-1"
	case Format2:
		return "format-2"
	default:
		return fmt.Sprintf("format-%d", uint16(f))
	}
}

// Header holds the decoded fields of the MThd chunk.
type Header struct {
	FormatType Format
	NumTracks  uint16
	PPQ        uint16
}

// Kind enumerates the event categories a RawEvent or TimedEvent can carry.
// The numeric status bytes these map from/to are listed in spec.md's
// status table; Kind exists so callers dispatch on a single enum instead
// of re-deriving category from raw status/meta-type bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoteOff
	KindNoteOn
	KindPolyTouch
	KindControlChange
	KindProgramChange
	KindAftertouch
	KindPitchWheel
	KindSequenceNumber
	KindText
	KindCopyright
	KindTrackName
	KindInstrumentName
	KindLyrics
	KindMarker
	KindCueMarker
	KindProgramName
	KindDeviceName
	KindChannelPrefix
	KindMIDIPort
	KindEndOfTrack
	KindSetTempo
	KindSMPTEOffset
	KindTimeSignature
	KindKeySignature
	KindSequencerSpecific
	KindSysex
	KindEscape
)

func (k Kind) String() string {
	switch k {
	case KindNoteOff:
		return "NOTE_OFF"
	case KindNoteOn:
		return "NOTE_ON"
	case KindPolyTouch:
		return "POLY_TOUCH"
	case KindControlChange:
		return "CONTROL_CHANGE"
	case KindProgramChange:
		return "PROGRAM_CHANGE"
	case KindAftertouch:
		return "AFTERTOUCH"
	case KindPitchWheel:
		return "PITCH_WHEEL"
	case KindSequenceNumber:
		return "SEQUENCE_NUMBER"
	case KindText:
		return "TEXT"
	case KindCopyright:
		return "COPYRIGHT"
	case KindTrackName:
		return "TRACK_NAME"
	case KindInstrumentName:
		return "INSTRUMENT_NAME"
	case KindLyrics:
		return "LYRICS"
	case KindMarker:
		return "MARKER"
	case KindCueMarker:
		return "CUE_MARKER"
	case KindProgramName:
		return "PROGRAM_NAME"
	case KindDeviceName:
		return "DEVICE_NAME"
	case KindChannelPrefix:
		return "CHANNEL_PREFIX"
	case KindMIDIPort:
		return "MIDI_PORT"
	case KindEndOfTrack:
		return "END_OF_TRACK"
	case KindSetTempo:
		return "SET_TEMPO"
	case KindSMPTEOffset:
		return "SMPTE_OFFSET"
	case KindTimeSignature:
		return "TIME_SIGNATURE"
	case KindKeySignature:
		return "KEY_SIGNATURE"
	case KindSequencerSpecific:
		return "SEQUENCER_SPECIFIC"
	case KindSysex:
		return "SYSEX"
	case KindEscape:
		return "ESCAPE"
	default:
		return "UNKNOWN"
	}
}

// Event is the decoded shape shared by RawEvent and TimedEvent: a kind tag,
// the raw status/channel the track parser saw, and the event's payload
// bytes (channel data bytes, or a meta/sysex body).
type Event struct {
	Kind    Kind
	Status  byte
	Channel uint8
	Payload []byte
	// Synthesized marks an END_OF_TRACK this package generated itself
	// (a track ran out of bytes with no explicit 0xFF 0x2F, or the
	// merger reached exhaustion across every track) rather than one
	// read from the file.
	Synthesized bool
}

// RawEvent is a single decoded event as read from one track, with the
// delta time measured since the previous event on that same track.
type RawEvent struct {
	Event
	DeltaTicks uint32
}

// TimedEvent is a RawEvent that has passed through the merger and tempo
// mapper: DeltaTicks is relative to the previous emitted event across the
// whole merge, DeltaUS is that delta converted through the running tempo,
// SourceTrack identifies which track it came from, and TimestampUS is set
// once a Player has scheduled it (zero beforehand).
type TimedEvent struct {
	Event
	DeltaTicks  uint32
	DeltaUS     int64
	SourceTrack int
	TimestampUS int64
}

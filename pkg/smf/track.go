package smf

import "fmt"

// TrackParser decodes one MTrk chunk's events in order off a ByteSource,
// reconstructing running status and tolerating an intervening meta or
// sysex event between two running-status channel events — a stored
// channel status byte is only replaced by another channel status byte,
// never by a meta-type byte or 0xF0/0xF7.
//
// Grounded on pkg/vm/audio/midi.go's ParseMIDITempoMap scan loop (delta
// read, then dispatch on status/meta/sysex), generalized to emit every
// event kind rather than only SET_TEMPO.
type TrackParser struct {
	src           *ByteSource
	index         int
	runningStatus byte
	done          bool
}

func newTrackParser(src *ByteSource, index int) *TrackParser {
	return &TrackParser{src: src, index: index}
}

// Next returns the track's next event. Once the track's bytes are
// exhausted (by an explicit META 0x2F or by running out of buffer), it
// synthesizes exactly one END_OF_TRACK and thereafter returns ok=false.
func (tp *TrackParser) Next() (RawEvent, bool, error) {
	if tp.done {
		return RawEvent{}, false, nil
	}

	if tp.src.EOF() {
		tp.done = true
		return RawEvent{Event: Event{Kind: KindEndOfTrack, Status: 0x2F, Synthesized: true}}, true, nil
	}

	delta, err := tp.src.ReadVLQ()
	if err != nil {
		return RawEvent{}, false, err
	}

	b, err := tp.src.Peek()
	if err != nil {
		return RawEvent{}, false, err
	}

	ev := RawEvent{DeltaTicks: delta}

	switch {
	case b&0x80 == 0:
		if tp.runningStatus < 0x80 || tp.runningStatus > 0xEF {
			return RawEvent{}, false, fmt.Errorf("%w", ErrRunningStatusWithoutPrior)
		}
		status := tp.runningStatus
		ev.Status = status & 0xF0
		ev.Channel = status & 0x0F
		ev.Kind = channelKind(status)
		payload, err := tp.src.ReadBytes(channelDataLen(status))
		if err != nil {
			return RawEvent{}, false, err
		}
		ev.Payload = payload

	case b == 0xFF:
		if _, err := tp.src.ReadBytes(1); err != nil {
			return RawEvent{}, false, err
		}
		metaType, err := tp.src.ReadU8()
		if err != nil {
			return RawEvent{}, false, err
		}
		length, err := tp.src.ReadVLQ()
		if err != nil {
			return RawEvent{}, false, err
		}
		body, err := tp.src.ReadBytes(int(length))
		if err != nil {
			return RawEvent{}, false, err
		}
		ev.Status = metaType
		ev.Kind = metaKind(metaType)
		ev.Payload = body
		if metaType == 0x2F {
			tp.done = true
			return ev, true, nil
		}

	case b == 0xF0 || b == 0xF7:
		if _, err := tp.src.ReadBytes(1); err != nil {
			return RawEvent{}, false, err
		}
		length, err := tp.src.ReadVLQ()
		if err != nil {
			return RawEvent{}, false, err
		}
		body, err := tp.src.ReadBytes(int(length))
		if err != nil {
			return RawEvent{}, false, err
		}
		ev.Status = b
		ev.Kind = sysexKind(b)
		ev.Payload = body

	case b >= 0x80 && b <= 0xEF:
		if _, err := tp.src.ReadBytes(1); err != nil {
			return RawEvent{}, false, err
		}
		tp.runningStatus = b
		ev.Status = b & 0xF0
		ev.Channel = b & 0x0F
		ev.Kind = channelKind(b)
		payload, err := tp.src.ReadBytes(channelDataLen(b))
		if err != nil {
			return RawEvent{}, false, err
		}
		ev.Payload = payload

	default:
		return RawEvent{}, false, fmt.Errorf("smf: unexpected status byte 0x%02X at track %d", b, tp.index)
	}

	return ev, true, nil
}

func channelKind(status byte) Kind {
	switch status & 0xF0 {
	case 0x80:
		return KindNoteOff
	case 0x90:
		return KindNoteOn
	case 0xA0:
		return KindPolyTouch
	case 0xB0:
		return KindControlChange
	case 0xC0:
		return KindProgramChange
	case 0xD0:
		return KindAftertouch
	case 0xE0:
		return KindPitchWheel
	default:
		return KindUnknown
	}
}

func channelDataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

func metaKind(metaType byte) Kind {
	switch metaType {
	case 0x00:
		return KindSequenceNumber
	case 0x01:
		return KindText
	case 0x02:
		return KindCopyright
	case 0x03:
		return KindTrackName
	case 0x04:
		return KindInstrumentName
	case 0x05:
		return KindLyrics
	case 0x06:
		return KindMarker
	case 0x07:
		return KindCueMarker
	case 0x08:
		return KindProgramName
	case 0x09:
		return KindDeviceName
	case 0x20:
		return KindChannelPrefix
	case 0x21:
		return KindMIDIPort
	case 0x2F:
		return KindEndOfTrack
	case 0x51:
		return KindSetTempo
	case 0x54:
		return KindSMPTEOffset
	case 0x58:
		return KindTimeSignature
	case 0x59:
		return KindKeySignature
	case 0x7F:
		return KindSequencerSpecific
	default:
		return KindUnknown
	}
}

func sysexKind(status byte) Kind {
	if status == 0xF0 {
		return KindSysex
	}
	return KindEscape
}

package smf

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestFile_MinimalFormat0(t *testing.T) {
	body := []byte{}
	body = append(body, 0x00, 0xC0, 5) // PROGRAM_CHANGE
	body = append(body, 0x60, 0x90, 60, 100)
	body = append(body, 0x60, 0x80, 60, 0)
	body = append(body, endOfTrack()...)

	data := append(mthd(0, 1, 96), mtrk(body)...)
	path := writeTempMIDI(t, data)

	f, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.FormatType() != Format0 || f.NumTracks() != 1 || f.PPQ() != 96 {
		t.Fatalf("header = %v tracks=%d ppq=%d", f.FormatType(), f.NumTracks(), f.PPQ())
	}

	it, err := f.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	defer it.Close()

	var kinds []Kind
	for {
		ev, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		kinds = append(kinds, ev.Kind)
	}
	want := []Kind{KindProgramChange, KindNoteOn, KindNoteOff, KindEndOfTrack}
	if len(kinds) != len(want) {
		t.Fatalf("got %d events %v, want %v", len(kinds), kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestFile_LengthUS_SumsAllDeltas(t *testing.T) {
	body := append([]byte{0x60, 0x90, 60, 100, 0x60, 0x80, 60, 0}, endOfTrack()...)
	data := append(mthd(0, 1, 96), mtrk(body)...)
	path := writeTempMIDI(t, data)

	f, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	length, err := f.LengthUS()
	if err != nil {
		t.Fatalf("LengthUS: %v", err)
	}

	it, err := f.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	defer it.Close()
	var sum int64
	for {
		ev, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		sum += ev.DeltaUS
	}
	if sum != length {
		t.Fatalf("sum of deltas = %d, LengthUS = %d", sum, length)
	}
}

func TestFile_Format2_RequiresTrackSelection(t *testing.T) {
	body := append([]byte{}, endOfTrack()...)
	data := append(mthd(2, 1, 96), mtrk(body)...)
	path := writeTempMIDI(t, data)

	f, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := f.Iter(); !errors.Is(err, ErrFormat2RequiresTrackSelection) {
		t.Fatalf("Iter() on format 2: got %v, want ErrFormat2RequiresTrackSelection", err)
	}
	if _, err := f.LengthUS(); !errors.Is(err, ErrFormat2NotSupported) {
		t.Fatalf("LengthUS() on format 2: got %v, want ErrFormat2NotSupported", err)
	}

	it, err := f.TrackIter(0)
	if err != nil {
		t.Fatalf("TrackIter(0) on format 2 should still work: %v", err)
	}
	it.Close()
}

func TestFile_WindowedBufferMode_ProducesSameEvents(t *testing.T) {
	body := append([]byte{0x60, 0x90, 60, 100, 0x60, 0x80, 60, 0}, endOfTrack()...)
	data := append(mthd(0, 1, 96), mtrk(body)...)
	path := writeTempMIDI(t, data)

	owned, err := Open(path, Options{BufferSize: 0})
	if err != nil {
		t.Fatalf("Open owned: %v", err)
	}
	windowed, err := Open(path, Options{BufferSize: 3})
	if err != nil {
		t.Fatalf("Open windowed: %v", err)
	}

	ownedEvents := collectEvents(t, owned)
	windowedEvents := collectEvents(t, windowed)

	if len(ownedEvents) != len(windowedEvents) {
		t.Fatalf("owned produced %d events, windowed produced %d", len(ownedEvents), len(windowedEvents))
	}
	for i := range ownedEvents {
		if ownedEvents[i].Kind != windowedEvents[i].Kind || ownedEvents[i].DeltaUS != windowedEvents[i].DeltaUS {
			t.Fatalf("event %d differs: owned=%+v windowed=%+v", i, ownedEvents[i], windowedEvents[i])
		}
	}
}

func collectEvents(t *testing.T, f *File) []TimedEvent {
	t.Helper()
	it, err := f.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	defer it.Close()

	var out []TimedEvent
	for {
		ev, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, *ev)
	}
	return out
}

func TestFile_UnsupportedFormatField(t *testing.T) {
	data := append(mthd(3, 1, 96), mtrk(endOfTrack())...)
	path := writeTempMIDI(t, data)

	if _, err := Open(path, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Open with format 3: got %v, want ErrUnsupportedFormat", err)
	}
}

func TestFile_HeaderDeclaresMoreBytesThanFileHolds(t *testing.T) {
	data := append(mthd(0, 1, 96), mtrk(endOfTrack())...)
	// Corrupt the header's declared length (bytes 4-7) to claim far more
	// than the file actually has, without touching the file's real size.
	binary.BigEndian.PutUint32(data[4:8], 1<<24)
	path := writeTempMIDI(t, data)

	if _, err := Open(path, Options{}); !errors.Is(err, ErrTruncatedHeader) {
		t.Fatalf("Open with oversized header length: got %v, want ErrTruncatedHeader", err)
	}
}

func TestFile_TrackChunkDeclaresMoreBytesThanFileHolds(t *testing.T) {
	data := append(mthd(0, 1, 96), mtrk(endOfTrack())...)
	// Corrupt the MTrk chunk's declared length to claim far more bytes
	// than remain in the file.
	lenOffset := len(data) - len(endOfTrack()) - 4
	binary.BigEndian.PutUint32(data[lenOffset:lenOffset+4], 1<<24)
	path := writeTempMIDI(t, data)

	if _, err := Open(path, Options{}); !errors.Is(err, ErrTruncatedTrack) {
		t.Fatalf("Open with oversized track length: got %v, want ErrTruncatedTrack", err)
	}
}

func TestFile_TrackName(t *testing.T) {
	body := []byte{}
	body = append(body, 0x00, 0xFF, 0x03, 0x05, 'P', 'i', 'a', 'n', 'o')
	body = append(body, endOfTrack()...)
	data := append(mthd(0, 1, 96), mtrk(body)...)
	path := writeTempMIDI(t, data)

	f, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	name, err := f.TrackName(0)
	if err != nil {
		t.Fatalf("TrackName: %v", err)
	}
	if name != "Piano" {
		t.Fatalf("TrackName = %q, want %q", name, "Piano")
	}
}

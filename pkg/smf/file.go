package smf

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// Options configures how a File reads its tracks.
type Options struct {
	// BufferSize is the window size, in bytes, each track's ByteSource
	// keeps in memory. Zero means load each track's bytes fully into
	// memory once, up front.
	BufferSize int
	// ReuseEventObject, when true, has iterators reuse a single
	// TimedEvent allocation across calls to Next instead of allocating a
	// fresh one each time.
	ReuseEventObject bool
}

type trackHandle struct {
	offset int64
	length int64
}

// File is the entry point for reading a Standard MIDI File: it locates
// the header and every MTrk chunk once at Open time, then hands out
// iterators that stream events without holding the whole file in memory
// (unless Options.BufferSize is zero, in which case each track's own
// bytes are buffered, not the whole file).
//
// Grounded on pkg/vm/audio/midi.go's ParseMIDITempoMap header/chunk
// extraction and yalue-midi/smf_file.go's chunk-scanning Open.
type File struct {
	path   string
	header Header
	tracks []trackHandle
	opts   Options
	size   int64
}

// Open reads path's header and locates every track chunk, then returns a
// File ready to produce iterators. It does not decode any track bodies.
func Open(path string, opts Options) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	hdr, err := readHeader(fh, size)
	if err != nil {
		return nil, err
	}

	tracks, err := scanTrackChunks(fh, size, int(hdr.NumTracks))
	if err != nil {
		return nil, err
	}

	return &File{path: path, header: hdr, tracks: tracks, opts: opts, size: size}, nil
}

// readHeader parses the MThd chunk from r. fileSize bounds the declared
// body length against what the file could actually hold, so a corrupted
// or adversarial length field is rejected before it drives an allocation.
func readHeader(r io.Reader, fileSize int64) (Header, error) {
	var tag [4]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	if string(tag[:]) != "MThd" {
		return Header{}, ErrBadMagic
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length < 6 {
		return Header{}, fmt.Errorf("%w: header chunk length %d < 6", ErrTruncatedHeader, length)
	}
	if remaining := fileSize - 8; int64(length) > remaining {
		return Header{}, fmt.Errorf("%w: header declares %d bytes but only %d remain", ErrTruncatedHeader, length, remaining)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	formatType := binary.BigEndian.Uint16(body[0:2])
	if formatType > 2 {
		return Header{}, fmt.Errorf("%w: format %d", ErrUnsupportedFormat, formatType)
	}
	numTracks := binary.BigEndian.Uint16(body[2:4])
	division := binary.BigEndian.Uint16(body[4:6])
	if division == 0 || division&0x8000 != 0 {
		return Header{}, ErrUnsupportedDivision
	}

	return Header{FormatType: Format(formatType), NumTracks: numTracks, PPQ: division}, nil
}

// scanTrackChunks walks the chunks following the header looking for want
// MTrk chunks. fileSize bounds each chunk's declared length against the
// bytes actually remaining, rejecting a corrupted length before it is
// ever handed to a ByteSource as an allocation size.
func scanTrackChunks(r io.ReadSeeker, fileSize int64, want int) ([]trackHandle, error) {
	handles := make([]trackHandle, 0, want)
	for len(handles) < want {
		var tag [4]byte
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return nil, fmt.Errorf("%w: found %d of %d MTrk chunks: %v", ErrUnexpectedEOF, len(handles), want, err)
		}
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}
		length := binary.BigEndian.Uint32(lenBuf[:])

		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		if remaining := fileSize - offset; int64(length) > remaining {
			return nil, fmt.Errorf("%w: chunk at offset %d declares %d bytes but only %d remain", ErrTruncatedTrack, offset, length, remaining)
		}

		if string(tag[:]) == "MTrk" {
			handles = append(handles, trackHandle{offset: offset, length: int64(length)})
		}

		if _, err := r.Seek(int64(length), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}
	}
	return handles, nil
}

func (f *File) FormatType() Format { return f.header.FormatType }
func (f *File) PPQ() uint16        { return f.header.PPQ }
func (f *File) NumTracks() int     { return len(f.tracks) }

// Iterator streams TimedEvents and releases the file handles it opened
// once closed.
type Iterator struct {
	*EventIter
	closers []io.Closer
	closed  bool
}

// Close releases any file handles this iterator opened. Safe to call more
// than once.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	var firstErr error
	for _, c := range it.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openTrackParsers opens every track's ByteSource, fanning out across
// goroutines with errgroup the way an independent-resource worker pool
// would, since each track's handle and buffer are unshared. Grounded on
// pkg/vm/audio/timer.go's goroutine/channel lifecycle, generalized from a
// single cancellable loop to a join over N independent opens.
func (f *File) openTrackParsers() ([]*TrackParser, []io.Closer, error) {
	n := len(f.tracks)
	parsers := make([]*TrackParser, n)
	closers := make([]io.Closer, n)

	g, _ := errgroup.WithContext(context.Background())
	for i := range f.tracks {
		i := i
		g.Go(func() error {
			fh, err := os.Open(f.path)
			if err != nil {
				return fmt.Errorf("smf: opening track %d: %w", i, err)
			}
			th := f.tracks[i]
			src, err := newByteSource(fh, th.offset, th.length, f.size, f.opts.BufferSize)
			if err != nil {
				fh.Close()
				return err
			}
			parsers[i] = newTrackParser(src, i)
			if f.opts.BufferSize <= 0 {
				fh.Close()
			} else {
				closers[i] = fh
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, c := range closers {
			if c != nil {
				c.Close()
			}
		}
		return nil, nil, err
	}
	return parsers, closers, nil
}

// Iter returns a merged iterator over every track, in priority order by
// absolute tick with ascending track index as tie-break. Format 2 files
// must be iterated per-track instead, via TrackIter.
func (f *File) Iter() (*Iterator, error) {
	if f.header.FormatType == Format2 {
		return nil, ErrFormat2RequiresTrackSelection
	}
	parsers, closers, err := f.openTrackParsers()
	if err != nil {
		return nil, err
	}
	merger, err := newMerger(parsers)
	if err != nil {
		for _, c := range closers {
			if c != nil {
				c.Close()
			}
		}
		return nil, err
	}
	return &Iterator{EventIter: newEventIter(merger, f.header.PPQ, f.opts.ReuseEventObject), closers: closers}, nil
}

// TrackIter returns an iterator over a single track, independent of
// format. Works for format 2 files, where Iter is unavailable.
func (f *File) TrackIter(i int) (*Iterator, error) {
	if i < 0 || i >= len(f.tracks) {
		return nil, fmt.Errorf("smf: track index %d out of range [0,%d)", i, len(f.tracks))
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	th := f.tracks[i]
	src, err := newByteSource(fh, th.offset, th.length, f.size, f.opts.BufferSize)
	if err != nil {
		fh.Close()
		return nil, err
	}
	parser := newTrackParser(src, i)
	merger, err := newMerger([]*TrackParser{parser})
	if err != nil {
		fh.Close()
		return nil, err
	}

	var closers []io.Closer
	if f.opts.BufferSize > 0 {
		closers = []io.Closer{fh}
	} else {
		fh.Close()
	}
	return &Iterator{EventIter: newEventIter(merger, f.header.PPQ, f.opts.ReuseEventObject), closers: closers}, nil
}

// LengthUS returns the merged stream's total duration in microseconds.
// Format 2 files are not supported (there is no single merged timeline).
func (f *File) LengthUS() (int64, error) {
	if f.header.FormatType == Format2 {
		return 0, ErrFormat2NotSupported
	}
	it, err := f.Iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var total int64
	for {
		ev, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		total += ev.DeltaUS
	}
	return total, nil
}

// TempoMap returns every SET_TEMPO change across the merged stream, each
// stamped with the absolute tick at which it takes effect, plus the
// implicit 120 BPM default at tick zero. Format 2 files are not
// supported.
func (f *File) TempoMap() ([]TempoChange, error) {
	if f.header.FormatType == Format2 {
		return nil, ErrFormat2NotSupported
	}
	it, err := f.Iter()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	changes := []TempoChange{{AbsoluteTicks: 0, USPerQuarter: defaultTempoUSPQN}}
	var abs uint64
	for {
		ev, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		abs += uint64(ev.DeltaTicks)
		if ev.Kind == KindSetTempo {
			tempo, err := ev.Tempo()
			if err != nil {
				return nil, err
			}
			changes = append(changes, TempoChange{AbsoluteTicks: abs, USPerQuarter: tempo})
		}
	}
	return changes, nil
}

// TrackName scans track i for its first TRACK_NAME meta event and returns
// the decoded text, or "" if the track has none.
func (f *File) TrackName(i int) (string, error) {
	it, err := f.TrackIter(i)
	if err != nil {
		return "", err
	}
	defer it.Close()

	for {
		ev, ok, err := it.Next()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		if ev.Kind == KindTrackName {
			return ev.Text()
		}
	}
	return "", nil
}

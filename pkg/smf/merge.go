package smf

// cursor tracks one track's position in the merge: the next not-yet-
// emitted event (nil once the track has collapsed to exhaustion) and the
// absolute tick count at which the previously emitted event from this
// track landed.
type cursor struct {
	trackIndex int
	parser     *TrackParser
	next       *RawEvent
	cumTicks   uint64
	exhausted  bool
}

func (c *cursor) advance() error {
	ev, ok, err := c.parser.Next()
	if err != nil {
		return err
	}
	if !ok || ev.Kind == KindEndOfTrack {
		c.next = nil
		c.exhausted = true
		return nil
	}
	// A windowed ByteSource only keeps a returned slice valid until its
	// next read, and the merger reads each track one event ahead of what
	// it emits, so the payload is copied out of the window.
	if c.parser.src.owned == nil && ev.Payload != nil {
		ev.Payload = append([]byte(nil), ev.Payload...)
	}
	c.next = &ev
	return nil
}

// Merger performs a priority-ordered k-way merge of per-track cursors by
// absolute tick time, with ascending track index as the tie-break,
// producing a single monotonically non-decreasing stream. Each track's
// own END_OF_TRACK is collapsed into that track's exhaustion rather than
// forwarded; the merger emits exactly one synthesized END_OF_TRACK once
// every track is exhausted.
//
// Grounded on pkg/engine/midi_player.go's playMIDIMessages, which builds
// a full cross-track timeline and sorts it before replay; this merges
// incrementally instead; per spec.md's streaming, low-footprint
// requirement, the whole timeline is never materialized.
type Merger struct {
	cursors      []*cursor
	lastAbsTicks uint64
	eotEmitted   bool
}

func newMerger(parsers []*TrackParser) (*Merger, error) {
	cursors := make([]*cursor, len(parsers))
	for i, p := range parsers {
		c := &cursor{trackIndex: p.index, parser: p}
		if err := c.advance(); err != nil {
			return nil, err
		}
		cursors[i] = c
	}
	return &Merger{cursors: cursors}, nil
}

func (m *Merger) allExhausted() bool {
	for _, c := range m.cursors {
		if !c.exhausted {
			return false
		}
	}
	return true
}

// Next returns the next globally ordered event, the track it came from,
// and its delta ticks since the previously emitted event across the
// whole merge. ok is false once the single synthesized END_OF_TRACK has
// already been returned.
func (m *Merger) Next() (ev RawEvent, track int, deltaTicks uint64, ok bool, err error) {
	if m.allExhausted() {
		if m.eotEmitted {
			return RawEvent{}, 0, 0, false, nil
		}
		m.eotEmitted = true
		deltaTicks = 0
		if n := len(m.cursors); n > 0 {
			track = m.cursors[n-1].trackIndex
		}
		return RawEvent{Event: Event{Kind: KindEndOfTrack, Status: 0x2F, Synthesized: true}}, track, deltaTicks, true, nil
	}

	selected := -1
	var selectedAbs uint64
	for i, c := range m.cursors {
		if c.exhausted {
			continue
		}
		abs := c.cumTicks + uint64(c.next.DeltaTicks)
		if selected == -1 || abs < selectedAbs {
			selected = i
			selectedAbs = abs
		}
	}

	c := m.cursors[selected]
	deltaTicks = selectedAbs - m.lastAbsTicks
	emitted := *c.next
	m.lastAbsTicks = selectedAbs
	track = c.trackIndex

	if err := c.advance(); err != nil {
		return RawEvent{}, 0, 0, false, err
	}
	c.cumTicks = selectedAbs

	return emitted, track, deltaTicks, true, nil
}

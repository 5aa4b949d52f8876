package smf

// EventIter drives a Merger through a TempoMapper, producing TimedEvents.
// It is embedded in Iterator, which additionally owns the file handles
// backing the merger's track parsers.
type EventIter struct {
	merger *Merger
	tempo  *TempoMapper
	reuse  bool
	buf    TimedEvent
}

func newEventIter(merger *Merger, ppq uint16, reuse bool) *EventIter {
	return &EventIter{merger: merger, tempo: newTempoMapper(ppq), reuse: reuse}
}

// Next returns the next TimedEvent in merge order, or ok=false once the
// stream is exhausted. When the Iterator was constructed with
// ReuseEventObject true, the returned pointer aliases the same backing
// TimedEvent on every call and is only valid until the next call to Next.
func (it *EventIter) Next() (*TimedEvent, bool, error) {
	raw, track, deltaTicks, ok, err := it.merger.Next()
	if err != nil || !ok {
		return nil, ok, err
	}

	deltaUS := it.tempo.Convert(deltaTicks)
	if err := it.tempo.Observe(raw); err != nil {
		return nil, false, err
	}

	if it.reuse {
		it.buf = TimedEvent{
			Event:       raw.Event,
			DeltaTicks:  uint32(deltaTicks),
			DeltaUS:     deltaUS,
			SourceTrack: track,
		}
		return &it.buf, true, nil
	}

	return &TimedEvent{
		Event:       raw.Event,
		DeltaTicks:  uint32(deltaTicks),
		DeltaUS:     deltaUS,
		SourceTrack: track,
	}, true, nil
}

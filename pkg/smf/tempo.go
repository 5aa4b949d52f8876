package smf

// defaultTempoUSPQN is the tempo assumed before any SET_TEMPO event is
// seen: 120 BPM.
const defaultTempoUSPQN = 500000

// TempoMapper converts tick deltas to microsecond deltas using the
// running tempo, updating that tempo only after the SET_TEMPO event
// itself has been converted (so a tempo change takes effect starting
// with the event that follows it, never retroactively).
//
// Grounded on pkg/vm/audio/midi.go's TickCalculator/TempoEvent pair.
type TempoMapper struct {
	tempoUSPQN uint32
	ppq        uint16
}

func newTempoMapper(ppq uint16) *TempoMapper {
	return &TempoMapper{tempoUSPQN: defaultTempoUSPQN, ppq: ppq}
}

// Convert returns deltaTicks converted to microseconds under the current
// tempo, rounded to the nearest integer.
func (tm *TempoMapper) Convert(deltaTicks uint64) int64 {
	num := deltaTicks*uint64(tm.tempoUSPQN) + uint64(tm.ppq)/2
	return int64(num / uint64(tm.ppq))
}

// Observe updates the running tempo if ev is a SET_TEMPO event. Call
// after Convert so the tempo change applies to subsequent deltas only.
func (tm *TempoMapper) Observe(ev RawEvent) error {
	if ev.Kind != KindSetTempo {
		return nil
	}
	tempo, err := ev.Tempo()
	if err != nil {
		return err
	}
	tm.tempoUSPQN = tempo
	return nil
}

// TempoChange is a single entry in a pre-scanned tempo map: the tempo in
// effect starting at AbsoluteTicks.
type TempoChange struct {
	AbsoluteTicks uint64
	USPerQuarter  uint32
}

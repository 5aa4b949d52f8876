package player

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/miditools/smfstream/pkg/smf"
)

// laggingSleeper simulates a scheduler that occasionally runs behind: it
// advances the clock by the requested sleep PLUS an extra lag, modeling a
// goroutine that got descheduled.
type laggingSleeper struct {
	clock *fakeClock
	lag   int64
}

func (s *laggingSleeper) SleepUS(us int64) {
	s.clock.us += us + s.lag
}

// TestPlayerProperty_TimestampsMatchCumulativeDeltaRegardlessOfLag checks
// the drift-compensation contract: every event's TimestampUS equals the
// start time plus the sum of DeltaUS values up to and including that
// event, no matter how much extra lag the sleeper injects.
func TestPlayerProperty_TimestampsMatchCumulativeDeltaRegardlessOfLag(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("scheduled timestamps equal start + cumulative delta_us, independent of lag", prop.ForAll(
		func(deltas []int, lag int) bool {
			events := make([]smf.TimedEvent, len(deltas))
			for i, d := range deltas {
				events[i] = smf.TimedEvent{DeltaUS: int64(d)}
			}
			src := &sliceSource{events: events}
			clock := &fakeClock{}
			sleeper := &laggingSleeper{clock: clock, lag: int64(lag)}
			p := New(src, clock, sleeper)

			var cum int64
			for {
				ev, ok, err := p.Next()
				if err != nil {
					return false
				}
				if !ok {
					break
				}
				cum += ev.DeltaUS
				if ev.TimestampUS != cum {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(0, 5000)),
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t)
}

// TestPlayerProperty_StopAlwaysClosesSource checks that calling Stop at
// any point before exhaustion results in the source being closed exactly
// once, regardless of how many events had already been pulled.
func TestPlayerProperty_StopAlwaysClosesSource(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("Stop always results in a closed source", prop.ForAll(
		func(n, stopAfter int) bool {
			events := make([]smf.TimedEvent, n)
			for i := range events {
				events[i] = smf.TimedEvent{DeltaUS: 10}
			}
			src := &sliceSource{events: events}
			clock := &fakeClock{}
			p := New(src, clock, &fakeSleeper{clock: clock})

			for i := 0; i < stopAfter && i < n; i++ {
				if _, ok, _ := p.Next(); !ok {
					break
				}
			}
			p.Stop()
			p.Next()
			return src.closed
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

package player

import (
	"context"
	"sync"

	"github.com/miditools/smfstream/pkg/smf"
)

// EventSource is the pull interface the Player drives; *smf.Iterator
// satisfies it.
type EventSource interface {
	Next() (*smf.TimedEvent, bool, error)
	Close() error
}

// Player is the blocking scheduler variant: Next blocks the calling
// goroutine until the event's scheduled wall-clock time has arrived.
// Every event's target time is start + cumulative scheduled delta, so a
// late event never shifts the schedule for the ones after it.
//
// Grounded on pkg/engine/midi_player.go's calculateWaitDuration/
// playMIDIMessages wait-then-send loop and pkg/vm/audio/timer.go's
// stopCh/doneCh cancellation idiom, added here as an explicit Stop
// alongside the scheduling loop itself.
type Player struct {
	src     EventSource
	clock   Clock
	sleeper Sleeper

	startUS int64
	cumUS   int64
	started bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New returns a Player driving src. A nil clock or sleeper uses the
// system defaults.
func New(src EventSource, clock Clock, sleeper Sleeper) *Player {
	if clock == nil {
		clock = NewSystemClock()
	}
	if sleeper == nil {
		sleeper = SystemSleeper{}
	}
	return &Player{src: src, clock: clock, sleeper: sleeper, stopCh: make(chan struct{})}
}

// Stop cancels playback. Safe to call more than once and from any
// goroutine.
func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Player) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// Close releases the underlying event source's resources.
func (p *Player) Close() error { return p.src.Close() }

// Next blocks until the next event's scheduled wall-clock time, then
// returns it with TimestampUS set. ok is false once the stream is
// exhausted or Stop has been called.
func (p *Player) Next() (*smf.TimedEvent, bool, error) {
	if p.stopped() {
		p.src.Close()
		return nil, false, nil
	}

	ev, ok, err := p.src.Next()
	if err != nil || !ok {
		p.src.Close()
		return nil, ok, err
	}

	if !p.started {
		p.startUS = p.clock.NowUS()
		p.started = true
	}

	p.cumUS += ev.DeltaUS
	target := p.startUS + p.cumUS

	if remaining := target - p.clock.NowUS(); remaining > 0 {
		p.sleeper.SleepUS(remaining)
		if p.stopped() {
			p.src.Close()
			return nil, false, nil
		}
	}

	ev.TimestampUS = target
	return ev, true, nil
}

// AsyncPlayer is the cooperative scheduler variant: it suspends through
// an injectable AsyncSleeper instead of blocking an OS thread, and
// additionally accepts a context per call for external cancellation.
type AsyncPlayer struct {
	src     EventSource
	clock   Clock
	sleeper AsyncSleeper

	startUS int64
	cumUS   int64
	started bool
}

// NewAsync returns an AsyncPlayer driving src. A nil clock or sleeper
// uses the system defaults.
func NewAsync(src EventSource, clock Clock, sleeper AsyncSleeper) *AsyncPlayer {
	if clock == nil {
		clock = NewSystemClock()
	}
	if sleeper == nil {
		sleeper = ContextSleeper{}
	}
	return &AsyncPlayer{src: src, clock: clock, sleeper: sleeper}
}

// Close releases the underlying event source's resources.
func (p *AsyncPlayer) Close() error { return p.src.Close() }

// Next suspends (cooperatively, via the AsyncSleeper) until the next
// event's scheduled wall-clock time or ctx is done, whichever comes
// first.
func (p *AsyncPlayer) Next(ctx context.Context) (*smf.TimedEvent, bool, error) {
	select {
	case <-ctx.Done():
		p.src.Close()
		return nil, false, ctx.Err()
	default:
	}

	ev, ok, err := p.src.Next()
	if err != nil || !ok {
		p.src.Close()
		return nil, ok, err
	}

	if !p.started {
		p.startUS = p.clock.NowUS()
		p.started = true
	}

	p.cumUS += ev.DeltaUS
	target := p.startUS + p.cumUS

	if remaining := target - p.clock.NowUS(); remaining > 0 {
		if err := p.sleeper.SleepUS(ctx, remaining); err != nil {
			p.src.Close()
			return nil, false, err
		}
	}

	ev.TimestampUS = target
	return ev, true, nil
}

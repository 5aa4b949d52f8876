// Command smfplay drives the scheduler against a file and reports each
// event's scheduled wall-clock time. It stands in for a real serial MIDI
// transmitter, which is a host collaborator outside this module's scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/miditools/smfstream/pkg/player"
	"github.com/miditools/smfstream/pkg/smf"
)

// Transmitter is the host collaborator that would forward channel events
// to a serial MIDI output; this module only reaches it through this
// interface.
type Transmitter interface {
	Transmit(ev *smf.TimedEvent)
}

// stdoutTransmitter is a stand-in Transmitter for local inspection: it
// prints each event's wire bytes when transmittable, or its raw payload
// otherwise.
type stdoutTransmitter struct{}

func (stdoutTransmitter) Transmit(ev *smf.TimedEvent) {
	if wire, err := ev.ToMIDI(); err == nil {
		fmt.Printf("t=%dus track=%d % X\n", ev.TimestampUS, ev.SourceTrack, wire)
		return
	}
	fmt.Printf("t=%dus track=%d kind=%v payload=% X\n", ev.TimestampUS, ev.SourceTrack, ev.Kind, ev.Payload)
}

// newLogger builds a text-handler slog.Logger writing to stdout at the
// given level ("debug", "info", "warn", "error").
func newLogger(level string) (*slog.Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})), nil
}

func main() {
	bufferSize := flag.Int("buffer", 0, "byte source window size in bytes")
	track := flag.Int("track", -1, "play a single track instead of the merged stream (-1 = merged)")
	async := flag.Bool("async", false, "use the cooperative scheduler variant instead of the blocking one")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	log, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: smfplay [flags] <file.mid>")
		os.Exit(2)
	}

	if err := run(log, flag.Arg(0), *bufferSize, *track, *async); err != nil {
		fmt.Fprintln(os.Stderr, "smfplay:", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, path string, bufferSize, track int, async bool) error {
	f, err := smf.Open(path, smf.Options{BufferSize: bufferSize})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	var src player.EventSource
	if track >= 0 {
		src, err = f.TrackIter(track)
	} else {
		src, err = f.Iter()
	}
	if err != nil {
		return fmt.Errorf("starting iteration: %w", err)
	}

	tx := stdoutTransmitter{}

	if async {
		p := player.NewAsync(src, nil, nil)
		defer p.Close()
		ctx := context.Background()
		for {
			ev, ok, err := p.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if ev.Kind == smf.KindEndOfTrack && ev.Synthesized {
				log.Debug("synthesized END_OF_TRACK", "track", ev.SourceTrack)
			}
			tx.Transmit(ev)
		}
	}

	p := player.New(src, nil, nil)
	defer p.Close()
	for {
		ev, ok, err := p.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if ev.Kind == smf.KindEndOfTrack && ev.Synthesized {
			log.Debug("synthesized END_OF_TRACK", "track", ev.SourceTrack)
		}
		tx.Transmit(ev)
	}
}

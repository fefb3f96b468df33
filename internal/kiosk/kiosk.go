// Package kiosk runs the check-in station: simulated recognition on a timer
// plus operator commands read line by line.
//
// One goroutine owns the ledger and the simulator. Timer ticks and input
// lines are queued as events and applied in arrival order, so no state is
// shared between goroutines.
package kiosk

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/recognition"
)

// DefaultInterval is the time between detection attempts.
const DefaultInterval = 3500 * time.Millisecond

// maxLineBytes bounds one operator input line.
const maxLineBytes = 1 << 20

const helpText = `commands:
  mark <name>  mark a student present by name
  new          start a new session and recognition cycle
  count        show how many students were marked this session
  log          print the attendance log as CSV
  help         show this help
  quit         leave the kiosk`

// Kiosk is a running check-in station.
type Kiosk struct {
	ledger   *ledger.Ledger
	sim      *recognition.Simulator
	queue    *eventQueue
	out      io.Writer
	interval time.Duration
	logger   *zap.Logger
}

// Option configures a Kiosk.
type Option func(*Kiosk)

// WithInterval sets the detection interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(k *Kiosk) {
		if d > 0 {
			k.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(k *Kiosk) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// New creates a kiosk writing one line per outcome to out.
func New(l *ledger.Ledger, sim *recognition.Simulator, out io.Writer, opts ...Option) *Kiosk {
	k := &Kiosk{
		ledger:   l,
		sim:      sim,
		queue:    newEventQueue(),
		out:      out,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Run drives the kiosk until ctx is cancelled, in reaches EOF, or the
// operator types quit. It returns ctx.Err() on cancellation and nil
// otherwise.
//
// If in is an io.Closer it is closed on return so the reader goroutine can
// exit; otherwise a reader blocked in Read outlives Run.
func (k *Kiosk) Run(ctx context.Context, in io.Reader) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		return k.loop(gctx)
	})
	g.Go(func() error {
		k.tick(gctx)
		return nil
	})
	g.Go(func() error {
		k.read(in)
		return nil
	})
	if c, ok := in.(io.Closer); ok {
		g.Go(func() error {
			<-gctx.Done()
			c.Close()
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (k *Kiosk) loop(ctx context.Context) error {
	defer k.queue.Close()

	k.logger.Info("kiosk starting", zap.Duration("interval", k.interval))
	k.println(`Kiosk ready. Type "help" for commands.`)

	for {
		if event, ok := k.queue.TryDequeue(); ok {
			if done := k.handle(ctx, event); done {
				k.logger.Info("kiosk stopping", zap.String("reason", "operator"))
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			k.logger.Info("kiosk stopping", zap.String("reason", "context cancelled"))
			return ctx.Err()
		case <-k.queue.Wait():
		}
	}
}

func (k *Kiosk) tick(ctx context.Context) {
	t := time.NewTicker(k.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !k.queue.Enqueue(Event{Type: EventTick}) {
				return
			}
		}
	}
}

func (k *Kiosk) read(in io.Reader) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		if !k.queue.Enqueue(Event{Type: EventCommand, Line: sc.Text()}) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		k.logger.Warn("input closed", zap.Error(err))
	}
	k.queue.Enqueue(Event{Type: EventEOF})
}

// handle applies one event and reports whether the kiosk should stop.
// Called only from the loop goroutine.
func (k *Kiosk) handle(ctx context.Context, e Event) bool {
	switch e.Type {
	case EventTick:
		k.detect(ctx)
		return false
	case EventEOF:
		return true
	case EventCommand:
		return k.command(ctx, e.Line)
	default:
		k.logger.Warn("unknown kiosk event", zap.Int("type", int(e.Type)))
		return false
	}
}

func (k *Kiosk) detect(ctx context.Context) {
	// Paused until the operator starts a new session.
	if !k.sim.Active() {
		return
	}
	ev := k.sim.Tick(ctx)
	switch ev.Outcome {
	case recognition.Recognized, recognition.AlreadyMarked:
		k.printf("%s: %s %s", ev.Outcome, ev.Message, ev.Status)
	case recognition.NoEligible:
		k.printf("%s: %s %s", ev.Outcome, ev.Status, ev.Message)
	default:
		k.printf(`%s: %s Type "new" to start a new session.`, ev.Outcome, ev.Message)
	}
}

func (k *Kiosk) command(ctx context.Context, line string) bool {
	verb, arg := splitCommand(line)
	switch strings.ToLower(verb) {
	case "":
	case "mark":
		res := k.ledger.MarkPresent(ctx, arg)
		if res.Success {
			k.printf("ok: %s", res.Message)
		} else {
			k.printf("error: %s", res.Message)
		}
	case "new":
		k.ledger.StartNewSession()
		k.sim.NewCycle()
		k.println("New session started. Recognition cycle restarted.")
	case "count":
		k.printf("Marked this session: %d", k.ledger.SessionCount())
	case "log":
		csv := k.ledger.ExportCSV()
		if csv == "" {
			k.println("No attendance records yet.")
		} else {
			k.println(csv)
		}
	case "help":
		k.println(helpText)
	case "quit", "exit":
		return true
	default:
		k.printf(`Unknown command %q. Type "help" for commands.`, verb)
	}
	return false
}

// splitCommand returns the first word of line and the rest with surrounding
// whitespace removed. Runs of spaces or tabs separate the two.
func splitCommand(line string) (verb, arg string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

func (k *Kiosk) printf(format string, args ...any) {
	k.println(fmt.Sprintf(format, args...))
}

func (k *Kiosk) println(s string) {
	if _, err := fmt.Fprintln(k.out, s); err != nil {
		k.logger.Debug("write kiosk output", zap.Error(err))
	}
}

// Command hai-sim runs the firmware against the simulated board and prints
// what a monitor on the bus would see.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"hai-firmware/bus"
	"hai-firmware/hal/sim"
	"hai-firmware/power"
	"hai-firmware/services/config"
	"hai-firmware/services/system"
)

func main() {
	var (
		path     string
		ticks    uint
		realtime bool
		quiet    bool
	)
	flag.StringVar(&path, "scenario", "", "YAML scenario file (default: built-in demo).")
	flag.UintVar(&ticks, "ticks", 0, "Override the scenario's tick count.")
	flag.BoolVar(&realtime, "realtime", false, "Run the real main loop and arbitrator against a wall-clock ticker.")
	flag.BoolVar(&quiet, "quiet", false, "Only print the summary.")
	flag.Parse()

	raw := []byte(defaultScenario)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			fatal(err)
		}
		raw = b
	}
	sc, err := LoadScenario(raw)
	if err != nil {
		fatal(err)
	}
	if ticks > 0 {
		sc.Ticks = uint32(ticks)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := io.Writer(os.Stdout)
	if quiet {
		out = io.Discard
	}
	res, err := Run(ctx, sc, realtime, out)
	if err != nil {
		fatal(err)
	}
	res.Print(os.Stdout)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "hai-sim:", err)
	os.Exit(1)
}

// Result is the end-of-run summary.
type Result struct {
	Ticks     uint32
	Decisions map[power.Decision]uint32
	Notified  int
	Colors    int
	ErrLog    string
}

func (r *Result) Print(w io.Writer) {
	fmt.Fprintf(w, "ticks: %d\n", r.Ticks)
	fmt.Fprintln(w, "power decisions:")
	for d := power.WakePending; d <= power.BusyWait; d++ {
		fmt.Fprintf(w, "  %-20s %d\n", d, r.Decisions[d])
	}
	fmt.Fprintf(w, "notifications: %d\nled changes: %d\n", r.Notified, r.Colors)
	fmt.Fprint(w, "error log:\n", r.ErrLog)
}

// Run plays sc. Stepped mode iterates the loop once per tick and tallies
// what the arbitrator would decide; realtime mode runs the loop with the
// arbitrator and a ticker goroutine.
func Run(ctx context.Context, sc *Scenario, realtime bool, out io.Writer) (*Result, error) {
	cfg, err := sc.Build()
	if err != nil {
		return nil, err
	}
	if !realtime {
		// Stepped mode never sleeps; the decision is tallied instead.
		cfg.EnableSleep = false
	}

	b := bus.NewBus(256)
	conn := b.NewConnection("system")
	mon := b.NewConnection("monitor")
	feed := mon.Subscribe(bus.T("#"))

	board := sim.NewBoard(conn, cfg.TickMs)
	sys, err := system.New(cfg, system.Board{
		Wake:   board.Wake,
		Crit:   board.Crit,
		Clock:  board.Ticker.Timestamp,
		Radio:  board.Radio,
		Cap:    board.Cap,
		ADC:    board.ADC,
		CPU:    board.CPU,
		Switch: board.Switch,
		RGB:    board.RGB,
	}, conn)
	if err != nil {
		return nil, err
	}

	res := &Result{Decisions: map[power.Decision]uint32{}}
	drain := func() {
		for {
			select {
			case m := <-feed.Channel():
				fmt.Fprintf(out, "[%6d] %-28s %+v\n", board.Ticker.Timestamp(), topicString(m.Topic), m.Payload)
			default:
				return
			}
		}
	}

	next := 0
	step := func(t uint32) {
		for next < len(sc.Events) && sc.Events[next].At <= t {
			apply(sc.Events[next], board, cfg)
			next++
		}
		board.Tick()
	}

	if realtime {
		if err := runRealtime(ctx, sys, board, cfg, sc.Ticks, step, drain); err != nil {
			return nil, err
		}
		for d := power.WakePending; d <= power.BusyWait; d++ {
			res.Decisions[d] = sys.Arb.Count(d)
		}
	} else {
		for t := uint32(0); t < sc.Ticks; t++ {
			if ctx.Err() != nil {
				break
			}
			step(t)
			sys.Loop.Iterate()
			m := sys.Sched.Snapshot()
			res.Decisions[power.Decide(board.Wake.Pending(), board.Radio.LowPowerState(), m.SleepVeto, m.DeepSleepVeto)]++
			drain()
		}
	}

	res.Ticks = board.Ticker.Ticks()
	res.Notified = len(board.Radio.Notifications())
	res.Colors = len(board.RGB.History)
	var sb strings.Builder
	if err := sys.Log.Dump(&sb); err != nil {
		return nil, err
	}
	res.ErrLog = sb.String()
	return res, nil
}

func runRealtime(ctx context.Context, sys *system.System, board *sim.Board, cfg config.Config,
	ticks uint32, step func(uint32), drain func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sys.Run(ctx) }()

	tk := time.NewTicker(time.Duration(cfg.TickMs) * time.Millisecond)
	defer tk.Stop()
	for t := uint32(0); t < ticks; t++ {
		select {
		case <-ctx.Done():
			t = ticks
		case <-tk.C:
			step(t)
			drain()
		}
	}
	cancel()
	if err := <-done; err != nil && err != context.Canceled {
		return err
	}
	drain()
	return nil
}

// topicString renders a topic as a slash-separated path.
func topicString(t bus.Topic) string {
	var sb strings.Builder
	for i, tok := range t {
		if i > 0 {
			sb.WriteByte('/')
		}
		switch v := tok.(type) {
		case string:
			sb.WriteString(v)
		case int:
			fmt.Fprint(&sb, v)
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

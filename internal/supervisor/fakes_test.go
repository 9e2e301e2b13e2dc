package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/loykin/clawpanel/internal/history"
	"github.com/loykin/clawpanel/internal/runner"
)

// scriptedInspector answers Probe from a script; the last entry repeats.
type scriptedInspector struct {
	mu     sync.Mutex
	script []int // 0 = no listener
	probes int
	all    []int
}

func (f *scriptedInspector) Probe(_ context.Context, _ int) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.probes
	f.probes++
	if len(f.script) == 0 {
		return 0, false
	}
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	pid := f.script[i]
	return pid, pid != 0
}

func (f *scriptedInspector) FindAll(context.Context, int) []int { return f.all }

func (f *scriptedInspector) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

type fakeRunner struct {
	mu        sync.Mutex
	missing   bool
	spawnErr  error
	spawned   [][]string
	ran       []string
	results   map[string]runner.Result
	runErrors map[string]error
}

func (f *fakeRunner) Locate() (string, bool) {
	if f.missing {
		return "", false
	}
	return "/usr/local/bin/openclaw", true
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.Join(args, " ")
	f.ran = append(f.ran, key)
	if err := f.runErrors[key]; err != nil {
		return runner.Result{}, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return runner.Result{Success: true}, nil
}

func (f *fakeRunner) SpawnDetached(args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spawned = append(f.spawned, args)
	return f.spawnErr
}

func (f *fakeRunner) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ran...)
}

type fakeTerminator struct {
	mu     sync.Mutex
	fail   map[int]bool
	killed []int
}

func (f *fakeTerminator) Kill(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, pid)
	if f.fail[pid] {
		return errors.New("operation not permitted")
	}
	return nil
}

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
	hook  func(ctx context.Context) error
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return ctx.Err()
}

func (r *recordingSleeper) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

type memSink struct {
	mu     sync.Mutex
	events []history.Event
	err    error
}

func (m *memSink) Send(_ context.Context, e history.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

type fixture struct {
	insp  *scriptedInspector
	run   *fakeRunner
	term  *fakeTerminator
	sleep *recordingSleeper
	sink  *memSink
	sup   *Supervisor
}

func newFixture(script ...int) *fixture {
	f := &fixture{
		insp:  &scriptedInspector{script: script},
		run:   &fakeRunner{},
		term:  &fakeTerminator{},
		sleep: &recordingSleeper{},
		sink:  &memSink{},
	}
	sup, err := New(Options{
		InstallHint: "please install it via npm install -g openclaw",
		Inspector:   f.insp,
		Terminator:  f.term,
		Runner:      f.run,
		History:     f.sink,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sleep:       f.sleep.Sleep,
	})
	if err != nil {
		panic(err)
	}
	f.sup = sup
	return f
}

func repeat(d time.Duration, n int) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}

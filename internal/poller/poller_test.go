// internal/poller/poller_test.go
package poller

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	cfg "github.com/tamzrod/panel-controller/internal/config"
	"github.com/tamzrod/panel-controller/internal/status"
)

type fakeEval struct {
	mu        sync.Mutex
	evaluates int
	samples   int
	snap      status.Snapshot
}

func (f *fakeEval) Evaluate() status.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluates++
	s := f.snap
	s.Stored[0] = f.evaluates
	return s
}

func (f *fakeEval) Sample() status.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
	return f.snap
}

func (f *fakeEval) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evaluates, f.samples
}

type fakeSink struct {
	mu    sync.Mutex
	lines [][]byte
	fail  bool
}

func (f *fakeSink) WriteStatus(_ status.Snapshot, line []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, append([]byte(nil), line...))
	if f.fail {
		return errors.New("sink down")
	}
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, &fakeEval{}, nil, nil); err == nil {
		t.Fatalf("expected interval error")
	}
	if _, err := New(Config{Interval: time.Second}, nil, nil, nil); err == nil {
		t.Fatalf("expected evaluator error")
	}
}

func TestPollOnce_Success(t *testing.T) {
	ev := &fakeEval{snap: status.Snapshot{Mode: status.ModeAuto, Indicators: [3]int{1, 0, 0}}}
	sink := &fakeSink{}

	p, err := New(Config{Interval: time.Second}, ev, sink, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if res.Source != SourceTick {
		t.Fatalf("source: got=%s", res.Source)
	}
	want, err := status.Encode(res.Snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(res.Payload, want) {
		t.Fatalf("payload does not match snapshot")
	}
	if sink.count() != 1 || !bytes.Equal(sink.lines[0], res.Payload) {
		t.Fatalf("sink did not receive the payload")
	}
}

func TestPollOnce_SinkFailureIsReported(t *testing.T) {
	sink := &fakeSink{fail: true}
	p, _ := New(Config{Interval: time.Second}, &fakeEval{}, sink, nil)

	res := p.PollOnce()
	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(res.Payload) == 0 {
		t.Fatalf("payload must be produced even when delivery fails")
	}
}

func TestPollOnce_SinkFailureLoggedOnTransition(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	sink := &fakeSink{fail: true}
	p, _ := New(Config{Interval: time.Second}, &fakeEval{}, sink, logger)

	for i := 0; i < 15; i++ {
		p.PollOnce()
	}
	if n := strings.Count(logs.String(), "status delivery failed"); n != 1 {
		t.Fatalf("failure warnings: got=%d want=1\n%s", n, logs.String())
	}

	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()
	p.PollOnce()
	p.PollOnce()
	if n := strings.Count(logs.String(), "status delivery recovered"); n != 1 {
		t.Fatalf("recovery infos: got=%d want=1\n%s", n, logs.String())
	}
}

func TestRun_TicksAndContinuesAfterSinkErrors(t *testing.T) {
	ev := &fakeEval{}
	sink := &fakeSink{fail: true}
	p, _ := New(Config{Interval: 5 * time.Millisecond}, ev, sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("loop stalled after %d cycles", sink.count())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
}

func TestSnapshot_ServedByRunWithoutEvaluate(t *testing.T) {
	ev := &fakeEval{snap: status.Snapshot{Analog: [2]int{1, 2}}}
	sink := &fakeSink{}
	// Long interval: only the demand path runs.
	p, _ := New(Config{Interval: time.Hour}, ev, sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	res, err := p.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if res.Source != SourceDemand || res.Snapshot.Analog != [2]int{1, 2} {
		t.Fatalf("result: %+v", res)
	}
	if e, s := ev.counts(); e != 0 || s != 1 {
		t.Fatalf("evaluates=%d samples=%d, want 0/1", e, s)
	}
	if sink.count() != 1 {
		t.Fatalf("demand snapshot not forwarded to sink")
	}
}

func TestSnapshot_NoRunnerHonoursContext(t *testing.T) {
	p, _ := New(Config{Interval: time.Second}, &fakeEval{}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.Snapshot(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestBuild_SimBackend(t *testing.T) {
	c := cfg.Config{Panel: cfg.PanelConfig{Pins: cfg.PinsConfig{Backend: "sim"}}}
	cfg.Normalize(&c)

	sink := &fakeSink{}
	p, closeFn, err := Build(c.Panel, sink, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer closeFn()

	res := p.PollOnce()
	if _, err := status.Decode(res.Payload); err != nil {
		t.Fatalf("payload from sim panel does not decode: %v", err)
	}
}

func TestBuildLayout_Errors(t *testing.T) {
	if _, err := BuildLayout(cfg.PinsConfig{Lines: map[string]int{"nope": 3}}); err == nil {
		t.Fatalf("expected unknown pin error")
	}
	if _, err := BuildLayout(cfg.PinsConfig{Lines: map[string]int{"B5": 13}}); err == nil {
		t.Fatalf("expected line collision error")
	}
	if _, err := BuildLayout(cfg.PinsConfig{Pulls: map[string]string{"B5": "sideways"}}); err == nil {
		t.Fatalf("expected bad pull error")
	}
}

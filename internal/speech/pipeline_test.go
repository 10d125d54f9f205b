package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgnsrekt/autocast/internal/cache"
)

var errSynth = errors.New("synthesis failed")

type fakeSynth struct {
	delay time.Duration
	fail  string

	mu       sync.Mutex
	requests []Request

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (f *fakeSynth) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if req.Text == f.fail {
		return nil, errSynth
	}
	return []byte("<" + req.Text + ">"), nil
}

func (f *fakeSynth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestPipelineOrderAndProgress(t *testing.T) {
	synth := &fakeSynth{delay: 5 * time.Millisecond}
	p := &Pipeline{Synth: synth, Concurrency: 2, ChunkSize: 4}

	var progress [][2]int
	res, err := p.Run(context.Background(), "A1. B2. C3. D4.", Options{Model: "tts-1", Voice: "nova"},
		func(done, total int) { progress = append(progress, [2]int{done, total}) })
	if err != nil {
		t.Fatal(err)
	}

	if got := string(res.Audio); got != "<A1.><B2.><C3.><D4.>" {
		t.Errorf("audio = %q", got)
	}
	if res.Chunks != 4 || res.Cached != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(progress) != 5 {
		t.Fatalf("progress calls = %v", progress)
	}
	for i, p := range progress {
		if p[0] != i || p[1] != 4 {
			t.Errorf("progress[%d] = %v", i, p)
		}
	}
	if m := synth.maxInflight.Load(); m > 2 {
		t.Errorf("max concurrent requests = %d, want <= 2", m)
	}

	for _, r := range synth.requests {
		if r.Model != "tts-1" || r.Voice != "nova" || r.Format != FormatMP3 || r.Speed != DefaultSpeed {
			t.Errorf("request = %+v", r)
		}
	}
}

func TestPipelineCache(t *testing.T) {
	synth := &fakeSynth{}
	p := &Pipeline{Synth: synth, Cache: cache.NewMemoryCache(1 << 20), ChunkSize: 4}
	opts := Options{Model: "tts-1", Voice: "alloy"}

	if _, err := p.Run(context.Background(), "A1. B2.", opts, nil); err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(context.Background(), "A1. B2. C3.", opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached != 2 || synth.calls() != 3 {
		t.Errorf("cached = %d, calls = %d", res.Cached, synth.calls())
	}
	if string(res.Audio) != "<A1.><B2.><C3.>" {
		t.Errorf("audio = %q", res.Audio)
	}

	opts.Voice = "nova"
	if _, err := p.Run(context.Background(), "A1.", opts, nil); err != nil {
		t.Fatal(err)
	}
	if synth.calls() != 4 {
		t.Error("a different voice must not hit the cache")
	}
}

func TestPipelineMarkdown(t *testing.T) {
	synth := &fakeSynth{}
	p := &Pipeline{Synth: synth}

	res, err := p.Run(context.Background(), "## Intro\n\nHello **there**.", Options{Markdown: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Audio) != "<Intro.\n\nHello there.>" {
		t.Errorf("audio = %q", res.Audio)
	}
}

func TestPipelineErrors(t *testing.T) {
	synth := &fakeSynth{fail: "C3."}
	p := &Pipeline{Synth: synth, ChunkSize: 4}

	_, err := p.Run(context.Background(), "A1. B2. C3. D4.", Options{}, nil)
	if !errors.Is(err, errSynth) {
		t.Fatalf("error = %v, want errSynth", err)
	}
	if !strings.Contains(err.Error(), "chunk 3 of 4") {
		t.Errorf("error = %q", err)
	}

	if _, err := p.Run(context.Background(), " \n", Options{}, nil); !errors.Is(err, ErrEmptyText) {
		t.Errorf("blank script error = %v", err)
	}
}

func TestPipelineCanceled(t *testing.T) {
	synth := &fakeSynth{delay: time.Second}
	p := &Pipeline{Synth: synth, ChunkSize: 4}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Run(ctx, "A1. B2. C3. D4.", Options{}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("run did not stop on cancellation")
	}
}

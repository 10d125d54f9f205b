package speech

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/cache"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of chunks synthesized at once.
const DefaultConcurrency = 3

// Cache stores synthesized chunks between runs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// ProgressFunc is called after each chunk with the number of chunks done so
// far. Calls are serialized and done never decreases.
type ProgressFunc func(done, total int)

// Options are the voice settings for a run.
type Options struct {
	Model  string
	Voice  string
	Format Format
	Speed  float64

	// Markdown strips markup with SpeakableText before chunking.
	Markdown bool
}

// Result is the outcome of a pipeline run.
type Result struct {
	Audio   []byte
	Chunks  int
	Cached  int
	Elapsed time.Duration
}

// Pipeline splits a script into chunks, synthesizes them concurrently and
// joins the audio in script order.
type Pipeline struct {
	Synth Synthesizer
	Cache Cache // optional

	Concurrency int
	ChunkSize   int // runes; MaxInputRunes when zero
}

// Key returns the cache key for one chunk spoken with opts.
func (o Options) Key(chunk string) string {
	return cache.Key(o.Model, o.Voice, strconv.FormatFloat(o.Speed, 'f', 2, 64), string(o.Format), chunk)
}

// Run synthesizes script. progress may be nil.
func (p *Pipeline) Run(ctx context.Context, script string, opts Options, progress ProgressFunc) (Result, error) {
	start := time.Now()
	if opts.Format == "" {
		opts.Format = FormatMP3
	}
	if opts.Speed == 0 {
		opts.Speed = DefaultSpeed
	}

	text := script
	if opts.Markdown {
		text = SpeakableText(script)
	}
	chunks := Chunk(text, p.ChunkSize)
	if len(chunks) == 0 {
		return Result{}, ErrEmptyText
	}

	var (
		mu    sync.Mutex
		done  int
		total = len(chunks)
		parts = make([][]byte, total)
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil {
			progress(done, total)
		}
	}
	if progress != nil {
		progress(0, total)
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	cached := 0
	for i, chunk := range chunks {
		key := opts.Key(chunk)
		if p.Cache != nil {
			if audio, ok := p.Cache.Get(key); ok {
				log.Debug("chunk cache hit", "index", i, "size", humanize.Bytes(uint64(len(audio))))
				parts[i] = audio
				cached++
				report()
				continue
			}
		}

		g.Go(func() error {
			audio, err := p.Synth.Synthesize(gctx, Request{
				Text:   chunk,
				Model:  opts.Model,
				Voice:  opts.Voice,
				Format: opts.Format,
				Speed:  opts.Speed,
			})
			if err != nil {
				return fmt.Errorf("chunk %d of %d: %w", i+1, total, err)
			}
			if p.Cache != nil {
				if err := p.Cache.Put(key, audio); err != nil {
					log.Warn("unable to cache audio", "index", i, "error", err)
				}
			}
			parts[i] = audio
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	size := 0
	for _, part := range parts {
		size += len(part)
	}
	audio := make([]byte, 0, size)
	for _, part := range parts {
		audio = append(audio, part...)
	}

	res := Result{
		Audio:   audio,
		Chunks:  total,
		Cached:  cached,
		Elapsed: time.Since(start),
	}
	log.Info("synthesized script",
		"chunks", total,
		"cached", cached,
		"size", humanize.Bytes(uint64(len(audio))),
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// bytes per sample for signed 16-bit PCM
const sampleWidth = 2

var (
	// ErrEmptyAudio is returned when there is nothing to play.
	ErrEmptyAudio = errors.New("audio data is empty")

	// ErrClosed is returned by a closed player.
	ErrClosed = errors.New("player is closed")
)

// State is the playback state of a Player.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config describes the PCM stream handed to the device.
type Config struct {
	SampleRate int // 24000, 44100 or 48000 Hz
	Channels   int // 1 = mono, 2 = stereo
	BufferSize time.Duration
}

// DefaultConfig matches the raw PCM returned by the speech API: 24kHz mono.
func DefaultConfig() Config {
	return Config{
		SampleRate: 24000,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

// Validate checks that the device can be opened with c.
func (c Config) Validate() error {
	switch c.SampleRate {
	case 24000, 44100, 48000:
	default:
		return fmt.Errorf("sample rate must be 24000, 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// Duration returns how long n bytes of PCM play for.
func (c Config) Duration(n int) time.Duration {
	frame := c.Channels * sampleWidth
	if frame == 0 || c.SampleRate == 0 {
		return 0
	}
	return time.Duration(n/frame) * time.Second / time.Duration(c.SampleRate)
}

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoCfg  Config
	otoErr  error
)

func openDevice(cfg Config) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   cfg.BufferSize,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx, otoCfg = ctx, cfg
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoCfg != cfg {
		return nil, fmt.Errorf("audio device already opened at %d Hz with %d channels", otoCfg.SampleRate, otoCfg.Channels)
	}
	return otoCtx, nil
}

// Player plays signed 16-bit little-endian PCM on the default device.
type Player struct {
	cfg Config
	ctx *oto.Context

	mu     sync.Mutex
	player *oto.Player
	data   []byte // held until playback ends

	state atomic.Int32
}

// NewPlayer opens the audio device.
func NewPlayer(cfg Config) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ctx, err := openDevice(cfg)
	if err != nil {
		return nil, err
	}
	return &Player{cfg: cfg, ctx: ctx}, nil
}

// Play blocks until pcm has been played or ctx is done. Any playback in
// progress is stopped first.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return ErrEmptyAudio
	}
	if p.State() == StateClosed {
		return ErrClosed
	}
	p.Stop()

	p.mu.Lock()
	p.data = pcm
	p.player = p.ctx.NewPlayer(bytes.NewReader(pcm))
	player := p.player
	p.mu.Unlock()

	p.state.Store(int32(StatePlaying))
	player.Play()
	log.Debug("playing audio", "bytes", len(pcm), "duration", p.cfg.Duration(len(pcm)))

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case <-tick.C:
			if !player.IsPlaying() {
				err := player.Err()
				p.release(player)
				return err
			}
		}
	}
}

// Stop ends the current playback.
func (p *Player) Stop() {
	p.mu.Lock()
	player := p.player
	p.mu.Unlock()
	if player != nil {
		player.Pause()
		p.release(player)
	}
}

func (p *Player) release(player *oto.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != player {
		return
	}
	player.Close() //nolint:errcheck
	p.player, p.data = nil, nil
	p.state.CompareAndSwap(int32(StatePlaying), int32(StateStopped))
}

// State returns the playback state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Config returns the stream format.
func (p *Player) Config() Config {
	return p.cfg
}

// Close stops playback. The device itself stays open for the process.
func (p *Player) Close() error {
	p.Stop()
	p.state.Store(int32(StateClosed))
	return nil
}

// Package speech turns podcast scripts into audio through an
// OpenAI-compatible speech endpoint.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format is the encoding of synthesized audio.
type Format string

const (
	FormatMP3 Format = "mp3"
	// FormatPCM is raw 24kHz mono signed 16-bit little-endian samples.
	FormatPCM Format = "pcm"
)

// Extension returns the file extension for f.
func (f Format) Extension() string {
	if f == FormatPCM {
		return ".pcm"
	}
	return ".mp3"
}

// Speed bounds accepted by the speech API.
const (
	MinSpeed     = 0.25
	MaxSpeed     = 4.0
	DefaultSpeed = 1.0
)

// MaxInputRunes is the longest input the speech API accepts per request.
const MaxInputRunes = 4096

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned for input over MaxInputRunes.
	ErrTextTooLong = errors.New("text too long")

	// ErrInvalidSpeed is returned for a speed outside MinSpeed and MaxSpeed.
	ErrInvalidSpeed = errors.New("invalid speed")
)

// Request describes one synthesis call.
type Request struct {
	Text   string
	Model  string
	Voice  string
	Format Format
	Speed  float64
}

// Validate checks r, filling in the default format and speed.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if n := len([]rune(r.Text)); n > MaxInputRunes {
		return fmt.Errorf("%w: %d characters (max %d)", ErrTextTooLong, n, MaxInputRunes)
	}
	if r.Format == "" {
		r.Format = FormatMP3
	}
	if r.Speed == 0 {
		r.Speed = DefaultSpeed
	}
	if r.Speed < MinSpeed || r.Speed > MaxSpeed {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.1f)", ErrInvalidSpeed, r.Speed, MinSpeed, MaxSpeed)
	}
	return nil
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// OutputName is the default file name for audio generated at t, for example
// podcast_2024-05-01T10-30-00Z.mp3.
func OutputName(t time.Time) string {
	return "podcast_" + strings.ReplaceAll(t.UTC().Format(time.RFC3339), ":", "-") + ".mp3"
}

package speech

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/dustin/go-humanize"
	"github.com/openai/openai-go"
	"golang.org/x/time/rate"
)

// OpenAI synthesizes speech with the audio/speech endpoint.
type OpenAI struct {
	api     openai.Client
	limiter *rate.Limiter
}

// NewOpenAI builds a synthesizer from the same connection options as the
// script client. Only the key, URL, retry, timeout and rate fields are used.
func NewOpenAI(opts podcast.Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, podcast.ErrAPIKeyRequired
	}
	if opts.BaseURL == "" {
		e, _ := podcast.LookupEndpoint(podcast.DefaultEndpoint)
		opts.BaseURL = e.URL
	}
	return &OpenAI{
		api:     podcast.NewOpenAI(opts),
		limiter: podcast.NewLimiter(opts.RequestsPerMinute),
	}, nil
}

// Synthesize sends one request and returns the encoded audio.
func (s *OpenAI) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, podcast.WrapAPIError("speech", err)
	}

	start := time.Now()
	resp, err := s.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          openai.SpeechModel(req.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(req.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(req.Format),
		Speed:          openai.Float(req.Speed),
	})
	if err != nil {
		return nil, podcast.WrapAPIError("speech", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, podcast.WrapAPIError("speech", fmt.Errorf("reading audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, &podcast.Error{
			Code:    podcast.CodeEmpty,
			Op:      "speech",
			Message: "AI returned empty audio.",
			Cause:   podcast.ErrEmptyResult,
		}
	}

	log.Debug("synthesized speech",
		"model", req.Model,
		"voice", req.Voice,
		"chars", len([]rune(req.Text)),
		"size", humanize.Bytes(uint64(len(audio))),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return audio, nil
}

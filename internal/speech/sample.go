package speech

import (
	"context"
	"fmt"
)

// SampleModel is the speech model used for voice samples.
const SampleModel = "tts-1"

// sampleLimit caps the sample input to keep previews cheap.
const sampleLimit = 100

// SampleText is the line spoken by a voice sample, at most 100 runes.
func SampleText(voice string) string {
	s := []rune(fmt.Sprintf("Hello! This is a sample of the %s voice. It gives you an idea of how your podcast will sound.", voice))
	if len(s) > sampleLimit {
		s = s[:sampleLimit]
	}
	return string(s)
}

// Sample synthesizes a short preview of voice.
func Sample(ctx context.Context, s Synthesizer, voice string, format Format) ([]byte, error) {
	return s.Synthesize(ctx, Request{
		Text:   SampleText(voice),
		Model:  SampleModel,
		Voice:  voice,
		Format: format,
		Speed:  DefaultSpeed,
	})
}

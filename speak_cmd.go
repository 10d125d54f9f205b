package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/audio"
	"github.com/dgnsrekt/autocast/internal/cache"
	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/dgnsrekt/autocast/internal/speech"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type speakOptions struct {
	voice   string
	model   string
	speed   float64
	format  string
	noCache bool
	raw     bool
	play    bool
	output  string
}

var (
	speakOpts  speakOptions
	sampleOpts speakOptions
)

var speakCmd = &cobra.Command{
	Use:   "speak SCRIPT",
	Short: "Turn a script into audio",
	Long: paragraph(fmt.Sprintf("\n%s a script with an OpenAI voice. Markdown is stripped, the text is split into chunks "+
		"that are synthesized in parallel, and the audio is joined in order. Chunks are cached between runs.", keyword("Speak"))),
	Example: paragraph("autocast speak script.md\nautocast speak script.md --voice nova --speed 1.1 -o episode.mp3\nautocast speak script.md --play"),
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"md", "markdown", "txt"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSpeak(cmd.Context(), cmd.ErrOrStderr(), args[0], speakOpts)
	},
}

var sampleCmd = &cobra.Command{
	Use:     "sample",
	Short:   "Hear a short sample of a voice",
	Example: paragraph("autocast sample --voice shimmer --play\nautocast sample --voice onyx -o onyx.mp3"),
	Args:    cobra.NoArgs,
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSample(cmd.Context(), cmd.ErrOrStderr(), sampleOpts)
	},
}

func init() {
	flags := speakCmd.Flags()
	flags.StringVar(&speakOpts.voice, "voice", "", "voice to speak with")
	flags.StringVar(&speakOpts.model, "tts-model", "", "speech model (tts-1 or tts-1-hd)")
	flags.Float64Var(&speakOpts.speed, "speed", 0, "speaking speed, 0.25 to 4.0")
	flags.StringVar(&speakOpts.format, "format", "", "audio format: mp3 or pcm (default mp3, pcm with --play)")
	flags.BoolVar(&speakOpts.noCache, "no-cache", false, "synthesize every chunk again")
	flags.BoolVar(&speakOpts.raw, "raw", false, "speak the script as is, without stripping markdown")
	flags.BoolVar(&speakOpts.play, "play", false, "play the audio when done")
	flags.StringVarP(&speakOpts.output, "output", "o", "", "audio file to write")

	flags = sampleCmd.Flags()
	flags.StringVar(&sampleOpts.voice, "voice", "", "voice to sample")
	flags.StringVar(&sampleOpts.format, "format", "", "audio format: mp3 or pcm (default mp3, pcm with --play)")
	flags.BoolVar(&sampleOpts.play, "play", false, "play the sample instead of writing it")
	flags.StringVarP(&sampleOpts.output, "output", "o", "", "audio file to write")
}

// resolve fills opts from the settings and checks the result.
func (o speakOptions) resolve() (speakOptions, error) {
	var err error
	if o.voice == "" {
		o.voice = settings.Speech.Voice
	}
	if o.voice, err = podcast.ResolveVoice(o.voice); err != nil {
		return o, err //nolint:wrapcheck
	}
	if o.model == "" {
		o.model = settings.Speech.Model
	}
	if o.model, err = podcast.ResolveTTSModel(o.model); err != nil {
		return o, err //nolint:wrapcheck
	}
	if o.speed == 0 {
		o.speed = settings.Speech.Speed
	}
	if o.speed < speech.MinSpeed || o.speed > speech.MaxSpeed {
		return o, fmt.Errorf("%w: %.2f (must be between %.2f and %.1f)", speech.ErrInvalidSpeed, o.speed, speech.MinSpeed, speech.MaxSpeed)
	}

	switch f := strings.ToLower(o.format); {
	case f == "" && o.play:
		o.format = string(speech.FormatPCM)
	case f == "":
		o.format = string(speech.FormatMP3)
	case f == string(speech.FormatMP3), f == string(speech.FormatPCM):
		o.format = f
	default:
		return o, fmt.Errorf("%w: audio format %q (choose mp3 or pcm)", podcast.ErrUnknownOption, o.format)
	}
	if o.play && o.format != string(speech.FormatPCM) {
		return o, errors.New("--play needs raw pcm audio, use --format pcm")
	}
	return o, nil
}

// outputPath picks a file name in the output directory when none is given.
func outputPath(name string, format speech.Format) string {
	name = strings.TrimSuffix(name, filepath.Ext(name)) + format.Extension()
	return filepath.Join(settings.OutputDir, name)
}

func openCache() (*cache.Manager, error) {
	cfg, err := settings.CacheConfig()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	m, err := cache.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio cache: %w", err)
	}
	if days := settings.Cache.MaxAgeDays; days > 0 {
		n, err := m.Prune(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			log.Warn("unable to prune audio cache", "error", err)
		} else if n > 0 {
			log.Debug("pruned audio cache", "entries", n)
		}
	}
	return m, nil
}

// progressLine redraws a single status line on terminals and stays quiet
// elsewhere.
func progressLine(w io.Writer) speech.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	label := translator.T("common.synthesizing")
	return func(done, total int) {
		fmt.Fprintf(w, "\r%s %d/%d", label, done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func runSpeak(ctx context.Context, stderr io.Writer, path string, opts speakOptions) error {
	opts, err := opts.resolve()
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read script: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return podcast.ErrScriptRequired
	}

	synth, err := newSynthesizer()
	if err != nil {
		return err
	}
	p := &speech.Pipeline{
		Synth:       synth,
		Concurrency: settings.Speech.Concurrency,
		ChunkSize:   settings.Speech.ChunkSize,
	}
	if settings.Cache.Enabled && !opts.noCache {
		m, err := openCache()
		if err != nil {
			log.Warn("synthesizing without cache", "error", err)
		} else {
			defer func() {
				st := m.Stats()
				log.Debug("audio cache", "hits", st.L1Hits+st.L2Hits, "misses", st.Misses, "hit_rate", fmt.Sprintf("%.0f%%", st.HitRate()*100))
				_ = m.Close()
			}()
			p.Cache = m
		}
	}

	status(stderr, "common.synthesizing")
	format := speech.Format(opts.format)
	res, err := p.Run(ctx, string(b), speech.Options{
		Model:    opts.model,
		Voice:    opts.voice,
		Format:   format,
		Speed:    opts.speed,
		Markdown: !opts.raw,
	}, progressLine(stderr))
	if err != nil {
		return localize(err)
	}
	log.Info("synthesized script",
		"chunks", res.Chunks,
		"cached", res.Cached,
		"size", humanize.Bytes(uint64(len(res.Audio))),
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)

	output := opts.output
	if output == "" {
		output = outputPath(speech.OutputName(time.Now()), format)
	}
	if err := writeOutput(stderr, output, res.Audio); err != nil {
		return err
	}
	if opts.play {
		return play(ctx, res.Audio)
	}
	return nil
}

func runSample(ctx context.Context, stderr io.Writer, opts speakOptions) error {
	opts, err := opts.resolve()
	if err != nil {
		return err
	}
	synth, err := newSynthesizer()
	if err != nil {
		return err
	}

	status(stderr, "common.synthesizing")
	format := speech.Format(opts.format)
	b, err := speech.Sample(ctx, synth, opts.voice, format)
	if err != nil {
		return localize(err)
	}

	if opts.play && opts.output == "" {
		return play(ctx, b)
	}
	output := opts.output
	if output == "" {
		output = outputPath("sample_"+opts.voice, format)
	}
	if err := writeOutput(stderr, output, b); err != nil {
		return err
	}
	if opts.play {
		return play(ctx, b)
	}
	return nil
}

func play(ctx context.Context, pcm []byte) error {
	p, err := audio.NewPlayer(audio.DefaultConfig())
	if err != nil {
		return fmt.Errorf("unable to open audio device: %w", err)
	}
	defer p.Close() //nolint:errcheck

	if err := p.Play(ctx, pcm); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("unable to play audio: %w", err)
	}
	return nil
}

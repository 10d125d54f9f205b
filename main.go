// Package main provides the entry point for the AutoCast CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/config"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/dgnsrekt/autocast/internal/speech"
	"github.com/dgnsrekt/autocast/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// defaultScript is opened by the editor when no file is given.
const defaultScript = "script.md"

// Commands annotated with annotationNoSettings run without loading and
// validating the user settings, so a broken config can still be fixed.
const annotationNoSettings = "autocast/no-settings"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	settings          = config.Default()
	translator        = i18n.NewTranslator(i18n.MustLoad(), i18n.DefaultLocale)
	width             uint
	mouse             bool

	rootCmd = &cobra.Command{
		Use:   "autocast [SCRIPT]",
		Short: "Turn your notes into podcasts, from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nTurn text and markdown into %s. Generate a script, polish it in the editor and have it read aloud.", keyword("podcasts")),
		),
		Example: paragraph("autocast notes.md\nautocast generate docs/ -o script.md --edit\nautocast speak script.md"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"md", "markdown", "txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = config.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func skipSettings(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoSettings] != "" {
			return true
		}
		switch c.Name() {
		case "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "help":
			return true
		}
	}
	return false
}

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" {
		viper.SetConfigFile(config.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil && !skipSettings(cmd) {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	translator = i18n.NewTranslator(i18n.MustLoad(), i18n.DetectFromEnv(viper.GetString("locale")))
	if skipSettings(cmd) {
		return nil
	}

	s, err := config.Load(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}
	settings = s
	translator = i18n.NewTranslator(i18n.MustLoad(), i18n.DetectFromEnv(settings.Locale))

	if settings.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("settings loaded", "endpoint", settings.Endpoint, "locale", translator.Locale())

	// Detect terminal width
	if term.IsTerminal(int(os.Stdout.Fd())) {
		w, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err == nil {
			width = uint(w) //nolint:gosec
		}
		if width > 120 {
			width = 120
		}
	}
	if width == 0 {
		width = 80
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// newClient connects to the configured endpoint.
func newClient() (*podcast.Client, error) {
	opts, err := settings.ClientOptions(translator)
	if err != nil {
		return nil, localize(err)
	}
	c, err := podcast.NewClient(opts)
	if err != nil {
		return nil, localize(err)
	}
	return c, nil
}

func newSynthesizer() (*speech.OpenAI, error) {
	opts, err := settings.ClientOptions(translator)
	if err != nil {
		return nil, localize(err)
	}
	s, err := speech.NewOpenAI(opts)
	if err != nil {
		return nil, localize(err)
	}
	return s, nil
}

// localize swaps errors the user can fix for their translated message.
func localize(err error) error {
	var apiErr *podcast.Error
	switch {
	case errors.Is(err, podcast.ErrAPIKeyRequired):
		return errors.New(translator.T("errors.apiKeyRequired"))
	case errors.Is(err, podcast.ErrEndpointPlaceholder):
		return errors.New(translator.T("errors.endpointPlaceholder", "name", settings.Endpoint))
	case errors.As(err, &apiErr) && apiErr.Code == podcast.CodeAuth:
		return fmt.Errorf("%s: %w", translator.T("errors.invalidApiKey"), err)
	}
	return err
}

func execute(_ *cobra.Command, args []string) error {
	path := defaultScript
	if len(args) > 0 {
		path = args[0]
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, use autocast generate to turn it into a script", path)
	}
	return runTUI(path)
}

func runTUI(path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		log.Warn("ignoring glamour style", "style", cfg.GlamourStyle, "error", err)
		cfg.GlamourStyle = styles.AutoStyle
	}

	cfg.Path = path
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse

	// The editor owns the terminal from here on.
	if err := logToFile(); err != nil {
		return err
	}

	var refiner ui.Refiner
	if client, err := newClient(); err != nil {
		log.Warn("refining disabled", "error", err)
	} else {
		refiner = ui.RefineFunc(func(ctx context.Context, script, feedback string) (string, error) {
			out, err := client.RefineScript(ctx, podcast.RefineRequest{
				Script:       script,
				Feedback:     feedback,
				Language:     settings.Script.Language,
				Template:     settings.Script.Template,
				CustomPrompt: settings.Script.CustomPrompt,
			})
			return out, localize(err)
		})
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, translator, refiner).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer := setupLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", configPath()))
	flags.String("endpoint", "", "API endpoint ID or URL")
	flags.String("api-key", "", "API key (default $AUTOCAST_API_KEY or $OPENAI_API_KEY)")
	flags.String("model", "", "chat model used for scripts")
	flags.String("locale", "", "interface language (en, fa, ar)")
	flags.Bool("debug", false, "log debug output")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel in the editor")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("endpoint", flags.Lookup("endpoint"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("script.model", flags.Lookup("model"))
	_ = viper.BindPFlag("locale", flags.Lookup("locale"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	rootCmd.AddCommand(
		generateCmd,
		refineCmd,
		speakCmd,
		sampleCmd,
		previewCmd,
		checkCmd,
		configCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, config.AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, config.AppName)}, dirs...)
	}

	if c := os.Getenv(config.EnvPrefix + "_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(config.AppName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	defaultConfigFile = filepath.Join(dirs[0], config.AppName+".yml")
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if err := ensureConfigFile(defaultConfigFile); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
